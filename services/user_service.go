package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
	"github.com/TeaBear5/inspyre-ping-pong/storage"
	"golang.org/x/sync/errgroup"
)

const maxAvatarSizeBytes = 5 << 20

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PlayerSnapshot is the everything-about-a-player view backing the
// profile screen.
type PlayerSnapshot struct {
	User        *models.User          `json:"user"`
	Profile     *models.PlayerProfile `json:"profile"`
	RecentGames []*models.Game        `json:"recent_games"`
	Trophies    []*models.Trophy      `json:"trophies"`
}

type UserService interface {
	GetByID(ctx context.Context, userID int) (*models.User, error)
	GetSnapshot(ctx context.Context, userID int) (*PlayerSnapshot, error)
	UpdateTheme(ctx context.Context, userID int, theme models.ThemePreference) error
	UploadAvatar(ctx context.Context, userID int, fileHeader *multipart.FileHeader) (*models.User, error)
}

type userService struct {
	userRepo    repositories.UserRepository
	profileRepo repositories.ProfileRepository
	gameRepo    repositories.GameRepository
	trophyRepo  repositories.TrophyRepository
	uploader    storage.FileUploader
}

func NewUserService(
	userRepo repositories.UserRepository,
	profileRepo repositories.ProfileRepository,
	gameRepo repositories.GameRepository,
	trophyRepo repositories.TrophyRepository,
	uploader storage.FileUploader,
) UserService {
	return &userService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		gameRepo:    gameRepo,
		trophyRepo:  trophyRepo,
		uploader:    uploader,
	}
}

func (s *userService) GetByID(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.decorateAvatar(user)
	user.PasswordHash = ""
	return user, nil
}

// GetSnapshot gathers the profile page data with independent queries
// running concurrently.
func (s *userService) GetSnapshot(ctx context.Context, userID int) (*PlayerSnapshot, error) {
	snapshot := &PlayerSnapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user, err := s.userRepo.GetByID(gctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrNotFound
			}
			return err
		}
		s.decorateAvatar(user)
		user.PasswordHash = ""
		snapshot.User = user
		return nil
	})
	g.Go(func() error {
		profile, err := s.profileRepo.GetByUserID(gctx, nil, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrProfileNotFound) {
				return ErrNotFound
			}
			return err
		}
		snapshot.Profile = profile
		return nil
	})
	g.Go(func() error {
		games, err := s.gameRepo.ListByPlayer(gctx, userID, nil, 10)
		if err != nil {
			return err
		}
		snapshot.RecentGames = games
		return nil
	})
	g.Go(func() error {
		trophies, err := s.trophyRepo.ListByPlayer(gctx, userID)
		if err != nil {
			return err
		}
		snapshot.Trophies = trophies
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *userService) UpdateTheme(ctx context.Context, userID int, theme models.ThemePreference) error {
	if theme != models.ThemeLight && theme != models.ThemeDark {
		return fmt.Errorf("%w: unknown theme %q", ErrValidationFailed, theme)
	}
	err := s.profileRepo.UpdateTheme(ctx, userID, theme)
	if errors.Is(err, repositories.ErrProfileNotFound) {
		return ErrNotFound
	}
	return err
}

// UploadAvatar stores the image in the object store and records its key
// on the user. The previous avatar object is removed best-effort.
func (s *userService) UploadAvatar(ctx context.Context, userID int, fileHeader *multipart.FileHeader) (*models.User, error) {
	if s.uploader == nil {
		return nil, errors.New("avatar storage is not configured")
	}
	if fileHeader.Size > maxAvatarSizeBytes {
		return nil, fmt.Errorf("%w: avatar exceeds %d bytes", ErrValidationFailed, maxAvatarSizeBytes)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported avatar content type %q", ErrValidationFailed, contentType)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded avatar: %w", err)
	}
	defer file.Close()

	key := buildAvatarKey(userID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, io.LimitReader(file, maxAvatarSizeBytes)); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := user.AvatarKey
	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		return nil, err
	}
	if oldKey != nil && *oldKey != key {
		// Best effort, an orphan object is harmless.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	user.AvatarKey = &key
	s.decorateAvatar(user)
	user.PasswordHash = ""
	return user, nil
}

func buildAvatarKey(userID int, ext string) string {
	name := fmt.Sprintf("%d_%d%s", userID, time.Now().UnixNano(), ext)
	return filepath.ToSlash(filepath.Join("avatars", name))
}

func (s *userService) decorateAvatar(user *models.User) {
	if s.uploader == nil || user.AvatarKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(strings.TrimSpace(*user.AvatarKey))
	if url != "" {
		user.AvatarURL = &url
	}
}
