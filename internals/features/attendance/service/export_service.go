// internals/features/attendance/service/export_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"refqa_backend/internals/features/attendance/model"
	classModel "refqa_backend/internals/features/classes/model"
	studentModel "refqa_backend/internals/features/students/model"
	helper "refqa_backend/internals/helpers"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	DateLayout = "2006-01-02"
	SheetName  = "Attendance"
)

var (
	ErrClassNotFound = errors.New("class not found")
	ErrNotManager    = errors.New("not a manager of this class")
)

// AttendanceSheet: rekap absensi satu kelas (baris = murid, kolom = tanggal sesi).
type AttendanceSheet struct {
	ClassName string
	Dates     []time.Time
	Rows      []StudentRow
}

type StudentRow struct {
	StudentID string
	Name      string
	Statuses  []string // sejajar dengan Dates; "" = tidak tercatat
	Present   int
}

// EnsureCanManage: admin boleh semua kelas, selain itu harus pengelola aktif.
func EnsureCanManage(ctx context.Context, db *gorm.DB, who helper.Identity, classID string) (*classModel.ClassModel, error) {
	var class classModel.ClassModel
	if err := db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", classID, false).
		Take(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}
	if who.IsPrivileged() {
		return &class, nil
	}
	var n int64
	if err := db.WithContext(ctx).
		Model(&classModel.ClassManagerModel{}).
		Where("class_id = ? AND user_id = ? AND is_deleted = ?", classID, who.UserID, false).
		Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotManager
	}
	return &class, nil
}

// LoadAttendanceSheet: from/to inklusif, nil = tanpa batas.
func LoadAttendanceSheet(ctx context.Context, db *gorm.DB, class *classModel.ClassModel, from, to *time.Time) (*AttendanceSheet, error) {
	tx := db.WithContext(ctx)

	var sessions []model.AttendanceSessionModel
	if err := tx.Where("class_id = ? AND is_deleted = ?", class.ID, false).
		Order("date ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	// filter tanggal di Go: representasi kolom date beda antar dialek
	kept := sessions[:0]
	for _, s := range sessions {
		d := s.Date.UTC()
		if from != nil && d.Before(*from) {
			continue
		}
		if to != nil && d.After(*to) {
			continue
		}
		kept = append(kept, s)
	}
	sessions = kept
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Date.Before(sessions[j].Date) })

	var students []studentModel.StudentModel
	if err := tx.Select("id", "name").
		Where("class_id = ? AND is_deleted = ?", class.ID, false).
		Order("name ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	sheet := &AttendanceSheet{ClassName: class.Name}
	col := make(map[string]int, len(sessions))
	sessionIDs := make([]string, 0, len(sessions))
	for i, s := range sessions {
		sheet.Dates = append(sheet.Dates, s.Date.UTC())
		col[s.ID] = i
		sessionIDs = append(sessionIDs, s.ID)
	}

	rowOf := make(map[string]int, len(students))
	for i, st := range students {
		rowOf[st.ID] = i
		sheet.Rows = append(sheet.Rows, StudentRow{
			StudentID: st.ID,
			Name:      st.Name,
			Statuses:  make([]string, len(sessions)),
		})
	}

	if len(sessionIDs) > 0 && len(students) > 0 {
		var records []model.AttendanceRecordModel
		if err := tx.Select("session_id", "student_id", "status").
			Where("session_id IN ? AND is_deleted = ?", sessionIDs, false).
			Find(&records).Error; err != nil {
			return nil, err
		}
		for _, r := range records {
			ri, okRow := rowOf[r.StudentID]
			ci, okCol := col[r.SessionID]
			if !okRow || !okCol {
				continue
			}
			sheet.Rows[ri].Statuses[ci] = string(r.Status)
			if r.Status.Attended() {
				sheet.Rows[ri].Present++
			}
		}
	}
	return sheet, nil
}

// Workbook menulis sheet ke xlsx.
func (s *AttendanceSheet) Workbook() (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	header := make([]any, 0, len(s.Dates)+2)
	header = append(header, "Student")
	for _, d := range s.Dates {
		header = append(header, d.Format(DateLayout))
	}
	header = append(header, "Present")
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, err
	}

	for i, r := range s.Rows {
		row := make([]any, 0, len(r.Statuses)+2)
		row = append(row, r.Name)
		for _, st := range r.Statuses {
			row = append(row, st)
		}
		row = append(row, r.Present)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(SheetName, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze: true, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf, nil
}
