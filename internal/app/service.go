package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/kardemumma/internal/enrollment"
	"github.com/shrimpsizemoose/kardemumma/internal/grading"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

type Service struct {
	Config *Config
	Store  store.DocStore
	Auth   *Auth
	Ledger *enrollment.Ledger
	Grader *grading.Engine
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	docStore, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Service{
		Config: config,
		Store:  docStore,
		Auth:   auth,
		Ledger: &enrollment.Ledger{WithdrawLeadTime: config.WithdrawLeadTime()},
		Grader: &grading.Engine{Limits: grading.Limits{
			GradeMin:       0,
			GradeMax:       config.Grading.GradeMax,
			BonusMin:       config.Grading.BonusMin,
			BonusMax:       config.Grading.BonusMax,
			LegacyBonusMin: config.Grading.LegacyBonusMin,
			LegacyBonusMax: config.Grading.LegacyBonusMax,
		}},
	}, nil
}

// Identify resolves the calling subject and role from the request. With auth
// disabled the actor header is trusted as-is and the role is empty.
func (s *Service) Identify(r *http.Request) (subject, role string, err error) {
	subject = strings.TrimSpace(r.Header.Get(s.Config.API.ActorHeader))

	if !s.Config.Server.EnableAuth {
		return subject, "", nil
	}

	if subject == "" {
		return "", "", fmt.Errorf("missing actor header %s", s.Config.API.ActorHeader)
	}

	authHeader := r.Header.Get(s.Config.Auth.TokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "", fmt.Errorf("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	role, err = s.Auth.Identify(r.Context(), subject, token)
	if err != nil {
		return "", "", err
	}
	return subject, role, nil
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
