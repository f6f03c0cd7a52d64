package csvfile

import (
	"context"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"stocksent/internal/csvio"
	"stocksent/internal/domain/social"
	"stocksent/pkg/errors"
	"stocksent/pkg/logger"
)

// UserRepository serves per-author metadata joined from two CSVs: the
// owners file (OwnerID, PlayerLevel, MonthsActive) and the gains file
// (id, gain). Duplicate owner ids keep the first occurrence; owners
// missing from the gains file keep a zero gain.
type UserRepository struct {
	ownersPath string
	gainsPath  string
	log        *logger.Logger

	mu     sync.RWMutex
	loaded bool
	users  map[int]social.UserMetadata
}

// NewUserRepository creates a user metadata repository backed by the two files.
func NewUserRepository(ownersPath, gainsPath string, log *logger.Logger) *UserRepository {
	return &UserRepository{
		ownersPath: ownersPath,
		gainsPath:  gainsPath,
		log:        log.With("component", "user_repository"),
		users:      make(map[int]social.UserMetadata),
	}
}

// Init eagerly loads both files. Safe to call concurrently.
func (r *UserRepository) Init(ctx context.Context) error {
	return r.ensureLoaded(ctx)
}

// Get returns the metadata for userID, or ok=false if the user is unknown.
func (r *UserRepository) Get(ctx context.Context, userID int) (social.UserMetadata, bool, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return social.UserMetadata{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	return user, ok, nil
}

func (r *UserRepository) ensureLoaded(ctx context.Context) error {
	r.mu.RLock()
	if r.loaded {
		r.mu.RUnlock()
		return nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	// Owners first: duplicates are logged and the first occurrence wins
	for user, err := range csvio.ReadLines(ctx, r.ownersPath, ownerAdapter{}) {
		if err != nil {
			return errors.Wrap(err, "failed to load user data")
		}
		if _, exists := r.users[user.UserID]; exists {
			r.log.Warnf("Duplicate user with ID %d found in CSV. Skipping.", user.UserID)
			continue
		}
		r.users[user.UserID] = user
	}
	r.log.Infof("Loaded %d users from CSV file: %s", len(r.users), r.ownersPath)

	// Gains second: ids without an owner row are ignored
	for gain, err := range csvio.ReadLines(ctx, r.gainsPath, gainAdapter{}) {
		if err != nil {
			return errors.Wrap(err, "failed to load user gains")
		}
		if user, ok := r.users[gain.userID]; ok {
			user.TwoYearGain = gain.gain
			r.users[gain.userID] = user
		}
	}
	r.log.Infof("Updated gains for %d users from CSV file: %s", len(r.users), r.gainsPath)

	r.loaded = true
	return nil
}

type ownerAdapter struct{}

func (ownerAdapter) Headers() []string { return []string{"OwnerID", "PlayerLevel", "MonthsActive"} }

func (ownerAdapter) FromRecord(fields []string) (social.UserMetadata, error) {
	if len(fields) != 3 {
		return social.UserMetadata{}, errors.Wrapf(errors.ErrFieldCount, "expected 3 fields, got %d", len(fields))
	}
	id, _ := strconv.Atoi(fields[0])
	months, _ := strconv.Atoi(fields[2])
	return social.UserMetadata{
		UserID:       id,
		Level:        fields[1],
		MonthsActive: months,
		TwoYearGain:  decimal.Zero,
	}, nil
}

func (ownerAdapter) ToLines(social.UserMetadata) []string { return nil }

type gainRow struct {
	userID int
	gain   decimal.Decimal
}

type gainAdapter struct{}

func (gainAdapter) Headers() []string { return []string{"id", "gain"} }

func (gainAdapter) FromRecord(fields []string) (gainRow, error) {
	if len(fields) != 2 {
		return gainRow{}, errors.Wrapf(errors.ErrFieldCount, "expected 2 fields, got %d", len(fields))
	}
	id, _ := strconv.Atoi(fields[0])
	gain, err := decimal.NewFromString(fields[1])
	if err != nil {
		gain = decimal.Zero
	}
	return gainRow{userID: id, gain: gain}, nil
}

func (gainAdapter) ToLines(gainRow) []string { return nil }
