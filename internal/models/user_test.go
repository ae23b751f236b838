package models_test

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"repute/backend/internal/models"
)

// TestUserBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestUserBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	user := &models.User{
		Email:     "Jordan@X.com ",
		Username:  "jordan",
		FirstName: "Jordan",
		LastName:  "Lee",
	}

	// Ensure ID is empty before hook
	assert.Empty(t, user.ID, "User ID should be empty before BeforeCreate")

	// Act - Call the hook directly (GORM would call this automatically)
	err := user.BeforeCreate(nil)

	// Assert
	assert.NoError(t, err, "BeforeCreate should not return an error")
	assert.NotEmpty(t, user.ID, "User ID must be populated after BeforeCreate")

	parsedUUID, parseErr := uuid.Parse(user.ID)
	assert.NoError(t, parseErr, "User ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsedUUID, "Generated UUID should not be nil UUID")

	assert.Equal(t, "jordan@x.com", user.Email, "email is stored lower-cased")
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.KYCNone, user.KYCStatus)
}

// TestUserBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID or role.
func TestUserBeforeCreate_PreservesExistingID(t *testing.T) {
	// Arrange
	existingID := uuid.New().String()
	user := &models.User{ID: existingID, Email: "admin@x.com", Role: models.RoleAdmin}

	// Act
	err := user.BeforeCreate(nil)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, existingID, user.ID, "BeforeCreate should preserve existing ID")
	assert.Equal(t, models.RoleAdmin, user.Role)
}

// TestBeforeCreate_MultipleEntities verifies unique UUIDs are generated across entity types.
func TestBeforeCreate_MultipleEntities(t *testing.T) {
	user := &models.User{}
	profile := &models.Profile{}
	review := &models.Review{}
	nomination := &models.Nomination{}
	report := &models.Report{}
	follow := &models.Follow{}

	generatedIDs := make(map[string]bool)
	collect := func(id string) {
		assert.NotContains(t, generatedIDs, id, "Each entity should have a unique ID")
		generatedIDs[id] = true
		_, parseErr := uuid.Parse(id)
		assert.NoError(t, parseErr)
	}

	assert.NoError(t, user.BeforeCreate(nil))
	collect(user.ID)
	assert.NoError(t, profile.BeforeCreate(nil))
	collect(profile.ID)
	assert.NoError(t, review.BeforeCreate(nil))
	collect(review.ID)
	assert.NoError(t, nomination.BeforeCreate(nil))
	collect(nomination.ID)
	assert.NoError(t, report.BeforeCreate(nil))
	collect(report.ID)
	assert.NoError(t, follow.BeforeCreate(nil))
	collect(follow.ID)

	assert.Equal(t, 6, len(generatedIDs), "All generated IDs should be unique")
	assert.Equal(t, models.VisibilityPublic, profile.ProfileVisibility)
	assert.Equal(t, models.VisibilityPublic, profile.ReviewsVisibility)
	assert.Equal(t, models.ReportOpen, report.Status)
}

// TestUserStructTags verifies that struct tags are correctly defined for GORM and JSON.
func TestUserStructTags(t *testing.T) {
	userType := reflect.TypeOf(models.User{})

	idField, found := userType.FieldByName("ID")
	assert.True(t, found, "ID field should exist")
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey", "ID should be marked as primary key")
	assert.Contains(t, idField.Tag.Get("json"), "id", "ID should have json tag")

	emailField, found := userType.FieldByName("Email")
	assert.True(t, found)
	assert.Contains(t, emailField.Tag.Get("gorm"), "uniqueIndex", "Email should have unique index")

	hashField, found := userType.FieldByName("PasswordHash")
	assert.True(t, found)
	assert.Equal(t, "-", hashField.Tag.Get("json"), "password hash must never be serialised")

	ownerField, found := reflect.TypeOf(models.Profile{}).FieldByName("OwnerUserID")
	assert.True(t, found)
	assert.Contains(t, ownerField.Tag.Get("gorm"), "uniqueIndex", "a user owns at most one profile")
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name      string
		identity  models.Identity
		anonymous bool
		admin     bool
	}{
		{"anonymous", models.Anonymous(), true, false},
		{"user", models.Identity{UserID: "u1", Role: models.RoleUser}, false, false},
		{"admin", models.Identity{UserID: "u2", Role: models.RoleAdmin}, false, true},
		{"role without user", models.Identity{Role: models.RoleAdmin}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.anonymous, tt.identity.IsAnonymous())
			assert.Equal(t, tt.admin, tt.identity.IsAdmin())
		})
	}
}

func TestProfile_IsOwnedBy(t *testing.T) {
	owner := "u1"
	claimed := models.Profile{OwnerUserID: &owner}
	unclaimed := models.Profile{}

	assert.True(t, claimed.IsOwnedBy("u1"))
	assert.False(t, claimed.IsOwnedBy("u2"))
	assert.False(t, claimed.IsOwnedBy(""))
	assert.False(t, unclaimed.IsOwnedBy(""))
	assert.False(t, unclaimed.IsOwnedBy("u1"))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, models.ReviewPending.Valid())
	assert.True(t, models.ReviewPublished.Valid())
	assert.True(t, models.ReviewHidden.Valid())
	assert.False(t, models.ReviewStatus("deleted").Valid())

	assert.True(t, models.VisibilityPrivate.Valid())
	assert.False(t, models.Visibility("friends").Valid())
}

func TestUserSummary_Nil(t *testing.T) {
	var u *models.User
	assert.Nil(t, u.Summary())

	u = &models.User{ID: "u1", FirstName: "Ada", LastName: "L", PhoneVerified: true}
	s := u.Summary()
	assert.Equal(t, "Ada", s.FirstName)
	assert.True(t, s.PhoneVerified)
}

// BenchmarkUserBeforeCreate measures UUID generation performance.
func BenchmarkUserBeforeCreate(b *testing.B) {
	user := &models.User{Email: "bench@x.com"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		user.ID = ""
		_ = user.BeforeCreate(nil)
	}
}
