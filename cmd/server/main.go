package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	h := handlers.New(service)

	http.HandleFunc("POST /api/v1/courses", h.HandleCreateCourse)
	http.HandleFunc("GET /api/v1/courses", h.HandleListCourses)
	http.HandleFunc("DELETE /api/v1/courses", h.HandleDeleteCourse)
	http.HandleFunc("PATCH /api/v1/courses", h.HandleModifyCourse)

	http.HandleFunc("POST /api/v1/courses/members", h.HandleAddMembers)
	http.HandleFunc("GET /api/v1/courses/members", h.HandleListMembers)
	http.HandleFunc("DELETE /api/v1/courses/members", h.HandleDeleteMembers)

	http.HandleFunc("POST /api/v1/sheets", h.HandleCreateSheet)
	http.HandleFunc("GET /api/v1/sheets", h.HandleListSheets)
	http.HandleFunc("DELETE /api/v1/sheets/{id}", h.HandleDeleteSheet)

	http.HandleFunc("POST /api/v1/sheets/{id}/slots", h.HandleCreateSlots)
	http.HandleFunc("GET /api/v1/sheets/{id}/slots", h.HandleListSlots)

	http.HandleFunc("PATCH /api/v1/slots/{slotId}", h.HandleUpdateSlot)
	http.HandleFunc("DELETE /api/v1/slots/{slotId}", h.HandleDeleteSlot)
	http.HandleFunc("GET /api/v1/slots/{slotId}/members", h.HandleSlotMembers)

	http.HandleFunc("POST /api/v1/signups", h.HandleSignUp)
	http.HandleFunc("DELETE /api/v1/signups", h.HandleWithdraw)

	http.HandleFunc("POST /api/v1/grades", h.HandleGrade)
	http.HandleFunc("POST /api/v1/grades/update", h.HandleGradeUpdate)

	http.HandleFunc("GET /api/v1/current", h.HandleActiveSlot)
	http.HandleFunc("GET /api/v1/slot/next", h.HandleNextSlot)
	http.HandleFunc("GET /api/v1/slot/prev", h.HandlePrevSlot)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting kardemumma server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, hdr := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", hdr.Name, hdr.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Kardemumma server failed: %v", err)
	}
}
