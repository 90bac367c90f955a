package service

import (
	"context"
	"testing"
	"time"

	"refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	studentModel "refqa_backend/internals/features/students/model"
	syncModel "refqa_backend/internals/features/sync/model"
	helper "refqa_backend/internals/helpers"
	"refqa_backend/internals/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func date(s string) time.Time {
	t, _ := time.Parse(DateLayout, s)
	return t
}

func seedClass(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.OpenDB(t)

	require.NoError(t, db.Create(&classModel.ClassModel{Syncable: syncModel.Syncable{ID: "class-a"}, Name: "Class A"}).Error)
	require.NoError(t, db.Create(&classModel.ClassManagerModel{
		Syncable: syncModel.Syncable{ID: "class-a:u-servant"}, ClassID: "class-a", UserID: "u-servant",
	}).Error)

	students := []studentModel.StudentModel{
		{Syncable: syncModel.Syncable{ID: "stu-2"}, ClassID: "class-a", Name: "Zaki"},
		{Syncable: syncModel.Syncable{ID: "stu-1"}, ClassID: "class-a", Name: "Ayu"},
	}
	require.NoError(t, db.Create(&students).Error)

	sessions := []model.AttendanceSessionModel{
		{Syncable: syncModel.Syncable{ID: "ses-3"}, ClassID: "class-a", Date: date("2024-03-15")},
		{Syncable: syncModel.Syncable{ID: "ses-1"}, ClassID: "class-a", Date: date("2024-03-01")},
		{Syncable: syncModel.Syncable{ID: "ses-2"}, ClassID: "class-a", Date: date("2024-03-08")},
	}
	require.NoError(t, db.Create(&sessions).Error)

	records := []model.AttendanceRecordModel{
		{Syncable: syncModel.Syncable{ID: "r1"}, SessionID: "ses-1", StudentID: "stu-1", Status: model.AttendancePresent},
		{Syncable: syncModel.Syncable{ID: "r2"}, SessionID: "ses-2", StudentID: "stu-1", Status: model.AttendanceLate},
		{Syncable: syncModel.Syncable{ID: "r3"}, SessionID: "ses-1", StudentID: "stu-2", Status: model.AttendanceAbsent},
		{Syncable: syncModel.Syncable{ID: "r4"}, SessionID: "ses-3", StudentID: "stu-2", Status: model.AttendanceExcused},
	}
	require.NoError(t, db.Create(&records).Error)
	return db
}

func TestEnsureCanManage(t *testing.T) {
	db := seedClass(t)
	ctx := context.Background()

	class, err := EnsureCanManage(ctx, db, helper.Identity{UserID: "u-servant", Role: "SERVANT"}, "class-a")
	require.NoError(t, err)
	assert.Equal(t, "Class A", class.Name)

	_, err = EnsureCanManage(ctx, db, helper.Identity{UserID: "u-admin", Role: "ADMIN"}, "class-a")
	assert.NoError(t, err)

	_, err = EnsureCanManage(ctx, db, helper.Identity{UserID: "u-other", Role: "SERVANT"}, "class-a")
	assert.ErrorIs(t, err, ErrNotManager)

	_, err = EnsureCanManage(ctx, db, helper.Identity{UserID: "u-admin", Role: "ADMIN"}, "class-x")
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestLoadAttendanceSheet(t *testing.T) {
	db := seedClass(t)
	class := &classModel.ClassModel{Syncable: syncModel.Syncable{ID: "class-a"}, Name: "Class A"}

	sheet, err := LoadAttendanceSheet(context.Background(), db, class, nil, nil)
	require.NoError(t, err)

	require.Len(t, sheet.Dates, 3)
	assert.Equal(t, "2024-03-01", sheet.Dates[0].Format(DateLayout))
	assert.Equal(t, "2024-03-15", sheet.Dates[2].Format(DateLayout))

	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Ayu", sheet.Rows[0].Name)
	assert.Equal(t, []string{"PRESENT", "LATE", ""}, sheet.Rows[0].Statuses)
	assert.Equal(t, 2, sheet.Rows[0].Present)
	assert.Equal(t, []string{"ABSENT", "", "EXCUSED"}, sheet.Rows[1].Statuses)
	assert.Zero(t, sheet.Rows[1].Present)

	from, to := date("2024-03-08"), date("2024-03-15")
	ranged, err := LoadAttendanceSheet(context.Background(), db, class, &from, &to)
	require.NoError(t, err)
	require.Len(t, ranged.Dates, 2)
	assert.Equal(t, []string{"LATE", ""}, ranged.Rows[0].Statuses)
	assert.Equal(t, 1, ranged.Rows[0].Present)
}

func TestWorkbook(t *testing.T) {
	db := seedClass(t)
	class := &classModel.ClassModel{Syncable: syncModel.Syncable{ID: "class-a"}, Name: "Class A"}
	sheet, err := LoadAttendanceSheet(context.Background(), db, class, nil, nil)
	require.NoError(t, err)

	buf, err := sheet.Workbook()
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Student", "2024-03-01", "2024-03-08", "2024-03-15", "Present"}, rows[0])
	assert.Equal(t, []string{"Ayu", "PRESENT", "LATE", "", "2"}, rows[1])
	assert.Equal(t, []string{"Zaki", "ABSENT", "", "EXCUSED", "0"}, rows[2])
}
