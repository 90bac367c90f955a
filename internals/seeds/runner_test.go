package seeds

import (
	"context"
	"testing"

	classModel "refqa_backend/internals/features/classes/model"
	studentModel "refqa_backend/internals/features/students/model"
	syncModel "refqa_backend/internals/features/sync/model"
	syncService "refqa_backend/internals/features/sync/service"
	userModel "refqa_backend/internals/features/users/user/model"
	"refqa_backend/internals/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeed_Changes(t *testing.T) {
	f, err := ParseSeed([]byte(`
classes:
  - id: c1
    name: Grade 1
users:
  - id: u1
    name: Andi
    email: ANDI@Example.com
    isActive: false
  - id: "  "
    name: skipped
students:
  - id: s1
    classId: c1
    name: Budi
    birthdate: 2015-03-02
`))
	require.NoError(t, err)

	changes := f.Changes()
	require.Len(t, changes, 3)

	assert.Equal(t, "seed:class:c1", changes[0].UUID)
	assert.Equal(t, syncService.KindClass, changes[0].Kind)
	assert.NotContains(t, changes[0].Payload, "grade")

	user := changes[1]
	assert.Equal(t, "seed:user:u1", user.UUID)
	assert.Equal(t, "SERVANT", user.Payload["role"])
	assert.Equal(t, "andi@example.com", user.Payload["email"])
	assert.Equal(t, false, user.Payload["isActive"])

	assert.Equal(t, "2015-03-02", changes[2].Payload["birthdate"])
	assert.Equal(t, "UPDATE", changes[2].Operation)
}

func TestParseSeed_InvalidYAML(t *testing.T) {
	_, err := ParseSeed([]byte("classes: [unclosed"))
	assert.Error(t, err)
}

func TestRun_ExampleFileIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := syncService.NewSyncService(db, nil, nil, "")
	ctx := context.Background()

	f, err := LoadSeedFile("seed.example.yaml")
	require.NoError(t, err)

	require.NoError(t, Run(ctx, svc, f))
	require.NoError(t, Run(ctx, svc, f))

	var classes, users, managers, students, logs int64
	require.NoError(t, db.Model(&classModel.ClassModel{}).Count(&classes).Error)
	require.NoError(t, db.Model(&userModel.UserModel{}).Count(&users).Error)
	require.NoError(t, db.Model(&classModel.ClassManagerModel{}).Count(&managers).Error)
	require.NoError(t, db.Model(&studentModel.StudentModel{}).Count(&students).Error)
	require.NoError(t, db.Model(&syncModel.ChangeLogModel{}).Where("user_id = ?", SystemUserID).Count(&logs).Error)

	assert.EqualValues(t, 1, classes)
	assert.EqualValues(t, 2, users)
	assert.EqualValues(t, 1, managers)
	assert.EqualValues(t, 1, students)
	assert.EqualValues(t, 5, logs)

	var st studentModel.StudentModel
	require.NoError(t, db.Take(&st, "id = ?", "student-budi").Error)
	require.NotNil(t, st.Birthdate)
	assert.Equal(t, "2015-03-02", st.Birthdate.Format("2006-01-02"))
}

func TestRun_ReportsFailures(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := syncService.NewSyncService(db, nil, nil, "")

	// email dobel melanggar unique index, satu tier user gagal
	f := &SeedFile{Users: []UserSeed{
		{ID: "u1", Name: "Andi", Email: "same@example.com"},
		{ID: "u2", Name: "Budi", Email: "same@example.com"},
	}}
	err := Run(context.Background(), svc, f)
	assert.Error(t, err)

	assert.NoError(t, Run(context.Background(), svc, &SeedFile{}))
}
