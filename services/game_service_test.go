package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/TeaBear5/inspyre-ping-pong/models"
	"github.com/TeaBear5/inspyre-ping-pong/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, nil))
}

func pendingSinglesGame(reporter, counterpart int) *models.Game {
	return &models.Game{
		ID:           5,
		Type:         models.GameTypeSingles,
		Status:       models.GameStatusPending,
		Player1ID:    intPtr(reporter),
		Player2ID:    intPtr(counterpart),
		Side1Score:   11,
		Side2Score:   8,
		Winner:       models.WinnerSide1,
		ReportedByID: reporter,
		PlayedAt:     time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC),
	}
}

func TestValidateReport(t *testing.T) {
	playedAt := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)

	base := func() *models.Game { return pendingSinglesGame(1, 2) }
	doubles := func() *models.Game {
		return &models.Game{
			Type:           models.GameTypeDoubles,
			Team1Player1ID: intPtr(1),
			Team1Player2ID: intPtr(2),
			Team2Player1ID: intPtr(3),
			Team2Player2ID: intPtr(4),
			Side1Score:     11,
			Side2Score:     6,
			Winner:         models.WinnerTeam1,
			ReportedByID:   1,
			PlayedAt:       playedAt,
		}
	}

	tests := []struct {
		name    string
		mutate  func(g *models.Game)
		game    func() *models.Game
		wantErr error
	}{
		{name: "valid singles", game: base},
		{name: "valid doubles", game: doubles},
		{
			name:    "negative score",
			game:    base,
			mutate:  func(g *models.Game) { g.Side2Score = -1 },
			wantErr: ErrNegativeScore,
		},
		{
			name:    "missing played_at",
			game:    base,
			mutate:  func(g *models.Game) { g.PlayedAt = time.Time{} },
			wantErr: ErrPlayedAtRequired,
		},
		{
			name:    "singles missing player",
			game:    base,
			mutate:  func(g *models.Game) { g.Player2ID = nil },
			wantErr: ErrSinglesPlayersRequired,
		},
		{
			name:    "same player both sides",
			game:    base,
			mutate:  func(g *models.Game) { g.Player2ID = intPtr(1) },
			wantErr: ErrSamePlayerBothSides,
		},
		{
			name:    "singles with team winner token",
			game:    base,
			mutate:  func(g *models.Game) { g.Winner = models.WinnerTeam1 },
			wantErr: ErrWinnerTokenInvalid,
		},
		{
			name:    "reporter not a participant",
			game:    base,
			mutate:  func(g *models.Game) { g.ReportedByID = 9 },
			wantErr: ErrReporterNotParticipant,
		},
		{
			name:    "doubles missing seat",
			game:    doubles,
			mutate:  func(g *models.Game) { g.Team2Player2ID = nil },
			wantErr: ErrDoublesPlayersRequired,
		},
		{
			name:    "doubles duplicate seat",
			game:    doubles,
			mutate:  func(g *models.Game) { g.Team2Player1ID = intPtr(2) },
			wantErr: ErrSamePlayerBothSides,
		},
		{
			name:    "doubles with side winner token",
			game:    doubles,
			mutate:  func(g *models.Game) { g.Winner = models.WinnerSide1 },
			wantErr: ErrWinnerTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game := tt.game()
			if tt.mutate != nil {
				tt.mutate(game)
			}
			err := validateReport(game)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResolveRole(t *testing.T) {
	singles := pendingSinglesGame(1, 2)
	assert.Equal(t, RoleReporter, resolveRole(singles, Actor{UserID: 1}))
	assert.Equal(t, RoleCounterpart, resolveRole(singles, Actor{UserID: 2}))
	assert.Equal(t, RoleOutsider, resolveRole(singles, Actor{UserID: 3}))

	doubles := &models.Game{
		Type:           models.GameTypeDoubles,
		Team1Player1ID: intPtr(1),
		Team1Player2ID: intPtr(2),
		Team2Player1ID: intPtr(3),
		Team2Player2ID: intPtr(4),
		ReportedByID:   1,
	}
	assert.Equal(t, RoleReporter, resolveRole(doubles, Actor{UserID: 1}))
	assert.Equal(t, RoleOutsider, resolveRole(doubles, Actor{UserID: 2}),
		"the reporter's teammate cannot act on the result")
	assert.Equal(t, RoleCounterpart, resolveRole(doubles, Actor{UserID: 3}))
	assert.Equal(t, RoleCounterpart, resolveRole(doubles, Actor{UserID: 4}))
}

func newGameServiceWithRepo(t *testing.T, repo *fakeGameRepo) (*gameService, *fakeNotificationService) {
	notifications := newFakeNotificationService()
	svc := NewGameService(nil, repo, nil, notifications, testLogger(t)).(*gameService)
	return svc, notifications
}

// verifyFixture wires a game service whose *sql.DB is mocked, so the
// verify transaction (begin, status flip, processing, commit) can be
// exercised without a database.
type verifyFixture struct {
	svc           *gameService
	mock          sqlmock.Sqlmock
	notifications *fakeNotificationService
	processed     []*models.Game
	statusFlips   int
}

func newVerifyFixture(t *testing.T, game *models.Game, processErr error, awarded map[int][]*models.Trophy) *verifyFixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &verifyFixture{mock: mock, notifications: newFakeNotificationService()}
	repo := &fakeGameRepo{
		GetByIDForUpdateFunc: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
			g := *game
			return &g, nil
		},
		UpdateStatusVerifiedFunc: func(ctx context.Context, exec repositories.SQLExecutor, id, verifierID int, at time.Time) error {
			f.statusFlips++
			return nil
		},
	}
	processor := &fakeMatchProcessor{
		ProcessFunc: func(ctx context.Context, exec repositories.SQLExecutor, g *models.Game) (map[int][]*models.Trophy, error) {
			f.processed = append(f.processed, g)
			return awarded, processErr
		},
	}
	f.svc = NewGameService(db, repo, processor, f.notifications, testLogger(t)).(*gameService)
	return f
}

func TestVerify(t *testing.T) {
	t.Run("counterpart verifies and processing runs in the transaction", func(t *testing.T) {
		streak := 3
		awarded := map[int][]*models.Trophy{
			1: {{PlayerID: 1, Type: models.TrophyStreak, Name: "3-Day Streak", Value: &streak}},
		}
		f := newVerifyFixture(t, pendingSinglesGame(1, 2), nil, awarded)
		f.mock.ExpectBegin()
		f.mock.ExpectCommit()

		game, err := f.svc.Verify(context.Background(), 5, Actor{UserID: 2})
		require.NoError(t, err)

		assert.Equal(t, models.GameStatusVerified, game.Status)
		require.NotNil(t, game.VerifiedByID)
		assert.Equal(t, 2, *game.VerifiedByID)
		assert.Equal(t, 1, f.statusFlips)
		require.Len(t, f.processed, 1)
		assert.Equal(t, models.GameStatusVerified, f.processed[0].Status,
			"the processor must see the already flipped status")
		assert.Len(t, f.notifications.verified, 1)
		assert.Len(t, f.notifications.trophies[1], 1)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("disputed game cannot be verified", func(t *testing.T) {
		game := pendingSinglesGame(1, 2)
		game.Status = models.GameStatusDisputed
		f := newVerifyFixture(t, game, nil, nil)
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.Verify(context.Background(), 5, Actor{UserID: 2})
		assert.ErrorIs(t, err, ErrGameNotPending)
		assert.Empty(t, f.processed)
		assert.Zero(t, f.statusFlips)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("reporter cannot verify own report", func(t *testing.T) {
		f := newVerifyFixture(t, pendingSinglesGame(1, 2), nil, nil)
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.Verify(context.Background(), 5, Actor{UserID: 1})
		assert.ErrorIs(t, err, ErrNotCounterpart)
		assert.Empty(t, f.processed)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("outsider cannot verify", func(t *testing.T) {
		f := newVerifyFixture(t, pendingSinglesGame(1, 2), nil, nil)
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.Verify(context.Background(), 5, Actor{UserID: 9})
		assert.ErrorIs(t, err, ErrNotCounterpart)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})

	t.Run("processing failure rolls everything back", func(t *testing.T) {
		f := newVerifyFixture(t, pendingSinglesGame(1, 2), errors.New("profile missing"), nil)
		f.mock.ExpectBegin()
		f.mock.ExpectRollback()

		_, err := f.svc.Verify(context.Background(), 5, Actor{UserID: 2})
		require.Error(t, err)
		assert.Empty(t, f.notifications.verified, "nothing announced when the transaction aborts")
		assert.NoError(t, f.mock.ExpectationsWereMet())
	})
}

func TestDispute(t *testing.T) {
	game := pendingSinglesGame(1, 2)
	repo := &fakeGameRepo{
		GetByIDFunc: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
			g := *game
			return &g, nil
		},
		UpdateStatusDisputedFunc: func(ctx context.Context, id, disputerID int, reason string, at time.Time) error {
			return nil
		},
	}
	svc, notifications := newGameServiceWithRepo(t, repo)

	t.Run("empty reason rejected", func(t *testing.T) {
		_, err := svc.Dispute(context.Background(), game.ID, Actor{UserID: 2}, "   ")
		assert.ErrorIs(t, err, ErrDisputeReasonRequired)
	})

	t.Run("reporter cannot dispute own report", func(t *testing.T) {
		_, err := svc.Dispute(context.Background(), game.ID, Actor{UserID: 1}, "score is wrong")
		assert.ErrorIs(t, err, ErrNotCounterpart)
	})

	t.Run("outsider cannot dispute", func(t *testing.T) {
		_, err := svc.Dispute(context.Background(), game.ID, Actor{UserID: 9}, "score is wrong")
		assert.ErrorIs(t, err, ErrNotCounterpart)
	})

	t.Run("counterpart disputes", func(t *testing.T) {
		disputed, err := svc.Dispute(context.Background(), game.ID, Actor{UserID: 2}, "score is wrong")
		require.NoError(t, err)
		assert.Equal(t, models.GameStatusDisputed, disputed.Status)
		require.NotNil(t, disputed.DisputeReason)
		assert.Equal(t, "score is wrong", *disputed.DisputeReason)
		assert.Len(t, notifications.disputed, 1)
	})

	t.Run("only pending can be disputed", func(t *testing.T) {
		game.Status = models.GameStatusVerified
		_, err := svc.Dispute(context.Background(), game.ID, Actor{UserID: 2}, "too late")
		assert.ErrorIs(t, err, ErrGameNotPending)
	})
}

func TestResolve(t *testing.T) {
	game := pendingSinglesGame(1, 2)
	game.Status = models.GameStatusDisputed
	repo := &fakeGameRepo{
		GetByIDFunc: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
			g := *game
			return &g, nil
		},
		UpdateStatusResolvedFunc: func(ctx context.Context, id, resolverID int, notes string, at time.Time) error {
			return nil
		},
	}
	svc, _ := newGameServiceWithRepo(t, repo)

	t.Run("requires admin", func(t *testing.T) {
		_, err := svc.Resolve(context.Background(), game.ID, Actor{UserID: 2}, "talked to both players")
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("requires notes", func(t *testing.T) {
		_, err := svc.Resolve(context.Background(), game.ID, Actor{UserID: 7, Admin: true}, "")
		assert.ErrorIs(t, err, ErrResolutionNotesRequired)
	})

	t.Run("admin resolves", func(t *testing.T) {
		resolved, err := svc.Resolve(context.Background(), game.ID, Actor{UserID: 7, Admin: true}, "talked to both players")
		require.NoError(t, err)
		assert.Equal(t, models.GameStatusResolved, resolved.Status)
	})

	t.Run("only disputed can be resolved", func(t *testing.T) {
		game.Status = models.GameStatusPending
		_, err := svc.Resolve(context.Background(), game.ID, Actor{UserID: 7, Admin: true}, "nothing to resolve")
		assert.ErrorIs(t, err, ErrGameNotDisputed)
	})
}

func TestCancel(t *testing.T) {
	game := pendingSinglesGame(1, 2)
	repo := &fakeGameRepo{
		GetByIDFunc: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
			g := *game
			return &g, nil
		},
		UpdateStatusCancelledFunc: func(ctx context.Context, id int) error {
			return nil
		},
	}
	svc, _ := newGameServiceWithRepo(t, repo)

	t.Run("requires admin", func(t *testing.T) {
		_, err := svc.Cancel(context.Background(), game.ID, Actor{UserID: 2})
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("admin cancels pending", func(t *testing.T) {
		cancelled, err := svc.Cancel(context.Background(), game.ID, Actor{UserID: 7, Admin: true})
		require.NoError(t, err)
		assert.Equal(t, models.GameStatusCancelled, cancelled.Status)
	})

	t.Run("terminal states cannot be cancelled", func(t *testing.T) {
		game.Status = models.GameStatusVerified
		_, err := svc.Cancel(context.Background(), game.ID, Actor{UserID: 7, Admin: true})
		assert.ErrorIs(t, err, ErrGameNotPending)
	})
}

// Guarded status updates report zero affected rows as a not-found
// error; the service translates that into the state conflict the
// caller actually raced against.
func TestTransitionRaceMapsToStateError(t *testing.T) {
	t.Run("dispute loses race to a verify", func(t *testing.T) {
		game := pendingSinglesGame(1, 2)
		repo := &fakeGameRepo{
			GetByIDFunc: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
				g := *game
				return &g, nil
			},
			UpdateStatusDisputedFunc: func(ctx context.Context, id, disputerID int, reason string, at time.Time) error {
				return repositories.ErrGameNotFound
			},
		}
		svc, _ := newGameServiceWithRepo(t, repo)

		_, err := svc.Dispute(context.Background(), game.ID, Actor{UserID: 2}, "score is wrong")
		assert.ErrorIs(t, err, ErrGameNotPending)
	})

	t.Run("resolve loses race to a cancel", func(t *testing.T) {
		game := pendingSinglesGame(1, 2)
		game.Status = models.GameStatusDisputed
		repo := &fakeGameRepo{
			GetByIDFunc: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
				g := *game
				return &g, nil
			},
			UpdateStatusResolvedFunc: func(ctx context.Context, id, resolverID int, notes string, at time.Time) error {
				return repositories.ErrGameNotFound
			},
		}
		svc, _ := newGameServiceWithRepo(t, repo)

		_, err := svc.Resolve(context.Background(), game.ID, Actor{UserID: 7, Admin: true}, "handled")
		assert.ErrorIs(t, err, ErrGameNotDisputed)
	})

	t.Run("cancel loses race to a verify", func(t *testing.T) {
		game := pendingSinglesGame(1, 2)
		repo := &fakeGameRepo{
			GetByIDFunc: func(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Game, error) {
				g := *game
				return &g, nil
			},
			UpdateStatusCancelledFunc: func(ctx context.Context, id int) error {
				return repositories.ErrGameNotFound
			},
		}
		svc, _ := newGameServiceWithRepo(t, repo)

		_, err := svc.Cancel(context.Background(), game.ID, Actor{UserID: 7, Admin: true})
		assert.ErrorIs(t, err, ErrGameNotPending)
	})
}

func TestListPendingVerificationsFiltersTeammates(t *testing.T) {
	doubles := &models.Game{
		ID:             21,
		Type:           models.GameTypeDoubles,
		Status:         models.GameStatusPending,
		Team1Player1ID: intPtr(1),
		Team1Player2ID: intPtr(2),
		Team2Player1ID: intPtr(3),
		Team2Player2ID: intPtr(4),
		ReportedByID:   1,
	}
	repo := &fakeGameRepo{
		ListPendingInvolvingFunc: func(ctx context.Context, userID int) ([]*models.Game, error) {
			return []*models.Game{doubles}, nil
		},
	}
	svc, _ := newGameServiceWithRepo(t, repo)

	games, err := svc.ListPendingVerifications(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, games, "reporter's teammate has nothing to verify")

	games, err = svc.ListPendingVerifications(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, games, 1)
}

func TestReportRejectsInvalidInput(t *testing.T) {
	repo := &fakeGameRepo{}
	svc, notifications := newGameServiceWithRepo(t, repo)

	_, err := svc.Report(context.Background(), 1, ReportGameInput{
		Type:       models.GameTypeSingles,
		Player1ID:  intPtr(1),
		Player2ID:  intPtr(1),
		Side1Score: 11,
		Side2Score: 3,
		Winner:     models.WinnerSide1,
		PlayedAt:   time.Now(),
	})
	assert.ErrorIs(t, err, ErrSamePlayerBothSides)
	assert.Empty(t, notifications.reported)
}

func TestReportCreatesPendingGame(t *testing.T) {
	repo := &fakeGameRepo{
		CreateFunc: func(ctx context.Context, game *models.Game) error {
			game.ID = 42
			game.ReportedAt = time.Now()
			return nil
		},
	}
	svc, notifications := newGameServiceWithRepo(t, repo)

	game, err := svc.Report(context.Background(), 1, ReportGameInput{
		Type:       models.GameTypeSingles,
		Player1ID:  intPtr(1),
		Player2ID:  intPtr(2),
		Side1Score: 11,
		Side2Score: 3,
		Winner:     models.WinnerSide1,
		PlayedAt:   time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 42, game.ID)
	assert.Equal(t, models.GameStatusPending, game.Status)
	assert.Len(t, notifications.reported, 1)
}
