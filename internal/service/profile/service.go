package profile

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/oggyb/pahilobhet/internal/app"
	"github.com/oggyb/pahilobhet/internal/db"
	svcErr "github.com/oggyb/pahilobhet/internal/errors"
	"github.com/oggyb/pahilobhet/internal/repository"
)

// Public is the profile shape other users see.
type Public struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Age          int    `json:"age,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Location     string `json:"location,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Private adds the fields only the owner sees.
type Private struct {
	Public
	Email string `json:"email"`
}

func ToPublic(u db.User) Public {
	return Public{
		ID:           u.ID,
		Name:         u.Name,
		Age:          u.Age,
		Gender:       u.Gender,
		Bio:          u.Bio,
		Location:     u.Location,
		ProfileImage: u.ProfileImage,
	}
}

func ToPrivate(u db.User) Private {
	return Private{Public: ToPublic(u), Email: u.Email}
}

// Update carries a partial profile edit; nil fields are left unchanged.
type Update struct {
	Name         *string `json:"name"`
	Age          *int    `json:"age"`
	Gender       *string `json:"gender"`
	Bio          *string `json:"bio"`
	Location     *string `json:"location"`
	ProfileImage *string `json:"profile_image"`
}

// Service implements profile reads and edits.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewProfileService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, userID uint64) (*Private, error) {
	u, err := s.users.GetActiveByID(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(notAuthenticated(err))
	}
	p := ToPrivate(*u)
	return &p, nil
}

// Get returns another user's public profile. Inactive users are not found.
func (s *Service) Get(ctx context.Context, id uint64) (*Public, error) {
	u, err := s.users.GetActiveByID(ctx, id)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	p := ToPublic(*u)
	return &p, nil
}

// UpdateMe applies a partial edit to the caller's profile and returns the result.
func (s *Service) UpdateMe(ctx context.Context, userID uint64, in Update) (*Private, error) {
	fields, err := in.columns()
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetActiveByID(ctx, userID); err != nil {
		return nil, svcErr.Map(notAuthenticated(err))
	}
	if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
		s.appCtx.Logger.Error("UpdateProfile failed", "user", userID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Debug("profile updated", "user", userID, "fields", len(fields))
	return s.Me(ctx, userID)
}

// columns validates the edit and returns the column updates.
func (in Update) columns() (map[string]any, error) {
	fields := map[string]any{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || utf8.RuneCountInString(name) > 100 {
			return nil, svcErr.InvalidArgument("name must be 1-100 characters")
		}
		fields["name"] = name
	}
	if in.Age != nil {
		if err := ValidateAge(*in.Age); err != nil {
			return nil, err
		}
		fields["age"] = *in.Age
	}
	if in.Gender != nil {
		fields["gender"] = strings.TrimSpace(*in.Gender)
	}
	if in.Bio != nil {
		if utf8.RuneCountInString(*in.Bio) > 1000 {
			return nil, svcErr.InvalidArgument("bio must be at most 1000 characters")
		}
		fields["bio"] = *in.Bio
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if in.ProfileImage != nil {
		fields["profile_image"] = strings.TrimSpace(*in.ProfileImage)
	}
	return fields, nil
}

// ValidateAge accepts 0 (not given) or 18-120.
func ValidateAge(age int) error {
	if age != 0 && (age < 18 || age > 120) {
		return svcErr.InvalidArgument("age must be between 18 and 120")
	}
	return nil
}

// notAuthenticated turns a missing caller row into ErrNotAuthenticated.
func notAuthenticated(err error) error {
	if svcErr.IsNotFound(err) {
		return svcErr.ErrNotAuthenticated
	}
	return err
}
