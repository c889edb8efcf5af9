package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

func emptyDB() *models.Database {
	return &models.Database{Courses: []models.Course{}, Sheets: []models.Sheet{}}
}

func seededDB() *models.Database {
	return &models.Database{
		Courses: []models.Course{
			{Term: 1, Section: 1, Name: "Databases", Members: []models.Member{
				{ID: "AAAA1111", First: "Anna", Last: "Larsson", Role: "student"},
				{ID: "BBBB2222", First: "Bjorn", Last: "Nilsson", Role: "grader"},
			}},
		},
		Sheets: []models.Sheet{},
	}
}

func TestCourseLifecycle(t *testing.T) {
	t.Run("create then list", func(t *testing.T) {
		db := emptyDB()
		require.NoError(t, CreateCourse(db, 1, 1, "Databases"))
		require.NoError(t, CreateCourse(db, 1, 2, "Databases"))

		views := ListCourses(db)
		require.Len(t, views, 2)
		assert.Equal(t, "Databases", views[0].Course)
	})

	t.Run("duplicate term/section", func(t *testing.T) {
		db := emptyDB()
		require.NoError(t, CreateCourse(db, 1, 1, "Databases"))
		err := CreateCourse(db, 1, 1, "Algorithms")
		require.Error(t, err)
		assert.Equal(t, 400, fault.HTTPStatus(err))
	})

	t.Run("delete blocked by sheets", func(t *testing.T) {
		db := seededDB()
		_, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)

		err = DeleteCourse(db, 1, 1)
		require.Error(t, err)
		assert.Equal(t, "Cannot delete course. Course has signup sheets.", err.Error())
	})

	t.Run("delete after sheets are gone", func(t *testing.T) {
		db := seededDB()
		id, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)
		require.NoError(t, DeleteSheet(db, id))
		require.NoError(t, DeleteCourse(db, 1, 1))
		assert.Empty(t, db.Courses)
	})
}

func TestModifyCourse(t *testing.T) {
	t.Run("rename follows through to sheets", func(t *testing.T) {
		db := seededDB()
		_, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)

		require.NoError(t, ModifyCourse(db, 1, 1, 1, 1, "Advanced Databases"))
		assert.Equal(t, "Advanced Databases", db.Courses[0].Name)
		assert.Equal(t, "Advanced Databases", db.Sheets[0].Course)
	})

	t.Run("with sheets only the name may change", func(t *testing.T) {
		db := seededDB()
		_, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)

		err = ModifyCourse(db, 1, 1, 2, 1, "")
		require.Error(t, err)
		assert.Equal(t, "Name required.", err.Error())
	})

	t.Run("move without sheets", func(t *testing.T) {
		db := seededDB()
		require.NoError(t, ModifyCourse(db, 1, 1, 2, 3, ""))
		assert.Nil(t, db.FindCourse(1, 1))
		require.NotNil(t, db.FindCourse(2, 3))
		assert.Equal(t, "Databases", db.FindCourse(2, 3).Name)
	})

	t.Run("move onto an existing course", func(t *testing.T) {
		db := seededDB()
		require.NoError(t, CreateCourse(db, 2, 3, "Algorithms"))
		err := ModifyCourse(db, 1, 1, 2, 3, "")
		require.Error(t, err)
		assert.Equal(t, "Course with this term/section already exists.", err.Error())
	})

	t.Run("unknown course", func(t *testing.T) {
		err := ModifyCourse(emptyDB(), 1, 1, 1, 1, "x")
		require.Error(t, err)
		assert.Equal(t, "Course not found.", err.Error())
	})
}

func TestAddMembers(t *testing.T) {
	t.Run("good, malformed and duplicate rows", func(t *testing.T) {
		db := seededDB()
		added, ignored, err := AddMembers(db, 1, 1, []models.Member{
			{ID: "cccc3333", First: "Clara", Last: "Ek", Role: "student"},
			{ID: "short", First: "Nope", Last: "Nope", Role: "student"},
			{ID: "DDDD4444", First: "", Last: "Berg", Role: "student"},
			{ID: "AAAA1111", First: "Anna", Last: "Larsson", Role: "student"},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"CCCC3333"}, added, "ids are normalized to uppercase")
		assert.Equal(t, []string{"short", "DDDD4444", "AAAA1111"}, ignored)

		course := db.FindCourse(1, 1)
		assert.Len(t, course.Members, 3)
	})

	t.Run("name fields are sanitized", func(t *testing.T) {
		db := seededDB()
		added, _, err := AddMembers(db, 1, 1, []models.Member{
			{ID: "EEEE5555", First: "<i>Eva</i>", Last: "Lind", Role: "student"},
		})
		require.NoError(t, err)
		require.Len(t, added, 1)

		m := db.FindCourse(1, 1).Member("EEEE5555")
		require.NotNil(t, m)
		assert.Equal(t, "Eva", m.First)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, _, err := AddMembers(emptyDB(), 1, 1, nil)
		require.Error(t, err)
		assert.Equal(t, 404, fault.HTTPStatus(err))
	})
}

func TestListMembers(t *testing.T) {
	db := seededDB()

	all, err := ListMembers(db, 1, 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	graders, err := ListMembers(db, 1, 1, "GRADER")
	require.NoError(t, err)
	require.Len(t, graders, 1)
	assert.Equal(t, "BBBB2222", graders[0].ID)

	_, err = ListMembers(db, 9, 9, "")
	assert.Error(t, err)
}

func TestDeleteMembers(t *testing.T) {
	t.Run("removes idle members", func(t *testing.T) {
		db := seededDB()
		removed, err := DeleteMembers(db, 1, 1, []string{"AAAA1111", "ZZZZ9999"})
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
		assert.Nil(t, db.FindCourse(1, 1).Member("AAAA1111"))
	})

	t.Run("whole batch refused when one member holds a seat", func(t *testing.T) {
		db := seededDB()
		id, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)
		sheet := db.FindSheet(id)
		sheet.Slots = []models.Slot{{ID: "slot-one", Start: 1, Duration: 30, Capacity: 2, Members: []models.Enrollment{
			{MemberID: "BBBB2222"},
		}}}

		_, err = DeleteMembers(db, 1, 1, []string{"AAAA1111", "BBBB2222"})
		require.Error(t, err)
		assert.Equal(t, "Member has active sign-ups. Deletion failed.", err.Error())
		assert.NotNil(t, db.FindCourse(1, 1).Member("AAAA1111"), "nobody removed")
	})
}

func TestSheetLifecycle(t *testing.T) {
	t.Run("create and list", func(t *testing.T) {
		db := seededDB()
		id, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1, NotBefore: 100, NotAfter: 200}, "HW1")
		require.NoError(t, err)
		assert.Len(t, id, 8)

		sheets := ListSheets(db, 1, 1)
		require.Len(t, sheets, 1)
		assert.Equal(t, "HW1", sheets[0].Assignment)
		assert.Equal(t, "Databases", sheets[0].Course)
		assert.Equal(t, int64(100), sheets[0].NotBefore)

		assert.Empty(t, ListSheets(db, 2, 1))
	})

	t.Run("duplicate assignment is case-insensitive", func(t *testing.T) {
		db := seededDB()
		_, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)

		_, err = CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "hw1")
		require.Error(t, err)
		assert.Equal(t, "Signup sheet with this assignment already exists.", err.Error())
	})

	t.Run("same assignment in another section is fine", func(t *testing.T) {
		db := seededDB()
		require.NoError(t, CreateCourse(db, 1, 2, "Databases"))
		_, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)
		_, err = CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 2}, "HW1")
		assert.NoError(t, err)
	})

	t.Run("course must exist", func(t *testing.T) {
		_, err := CreateSheet(emptyDB(), &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.Error(t, err)
		assert.Equal(t, "Course not found.", err.Error())
	})

	t.Run("delete blocked by sign-ups", func(t *testing.T) {
		db := seededDB()
		id, err := CreateSheet(db, &models.CreateSheetRequest{Term: 1, Section: 1}, "HW1")
		require.NoError(t, err)
		sheet := db.FindSheet(id)
		sheet.Slots = []models.Slot{{ID: "slot-one", Start: 1, Duration: 30, Capacity: 2, Members: []models.Enrollment{
			{MemberID: "AAAA1111"},
		}}}

		err = DeleteSheet(db, id)
		require.Error(t, err)
		assert.Equal(t, "Cannot delete sheet. It has slots with sign-ups.", err.Error())

		sheet.Slots[0].Members = nil
		assert.NoError(t, DeleteSheet(db, id))
		assert.Empty(t, db.Sheets)
	})
}
