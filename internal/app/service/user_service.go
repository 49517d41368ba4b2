package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"normal_oj/internal/common"
	"normal_oj/internal/common/security"
	"normal_oj/internal/domain/model"
	"normal_oj/internal/domain/repository"
)

// UserService covers admin-side account management: direct creation, batch
// signup and profile edits.
type UserService struct {
	userRepo   repository.UserRepository
	courseRepo repository.CourseRepository
	inTx       TxFunc
}

func NewUserService(userRepo repository.UserRepository, courseRepo repository.CourseRepository, inTx TxFunc) *UserService {
	return &UserService{userRepo: userRepo, courseRepo: courseRepo, inTx: inTx}
}

// Create registers a user on behalf of an admin; the account is verified
// immediately. Unlike self-registration, conflicts are disclosed.
func (s *UserService) Create(ctx context.Context, actor *model.User, req RegisterRequest) (*model.User, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateRegister(req); err != nil {
		return nil, err
	}

	hashed, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Pid:            uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
		APIKey:         "noj-" + uuid.NewString(),
		Role:           model.RoleStudent,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	if err := s.userRepo.MarkVerified(ctx, nil, user, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to mark user verified: %w", err)
	}
	slog.Info("user created by admin", "pid", user.Pid)
	return user, nil
}

// BatchSignupItem is one parsed row of the signup sheet.
type BatchSignupItem struct {
	Username      string
	Email         string
	Password      string
	DisplayedName *string
	Role          *model.Role
}

// batchSignupColumns is the fixed sheet schema: three mandatory columns
// followed by the optional ones, in this order.
var batchSignupColumns = []string{"username", "email", "password", "displayed_name", "role"}

// ParseBatchSignup parses the CSV payload for BatchSignup. The header must
// be a prefix of the fixed schema; any row that does not parse fails the
// whole payload.
func ParseBatchSignup(data string) ([]BatchSignupItem, error) {
	badRequest := func(format string, args ...any) error {
		return fmt.Errorf(format+": %w", append(args, common.ErrBadRequest)...)
	}

	reader := csv.NewReader(strings.NewReader(data))
	header, err := reader.Read()
	if err != nil {
		return nil, badRequest("error parse csv file")
	}
	if len(header) < 3 || len(header) > len(batchSignupColumns) {
		return nil, badRequest("unexpected csv header %q", strings.Join(header, ","))
	}
	for i, col := range header {
		if strings.TrimSpace(col) != batchSignupColumns[i] {
			return nil, badRequest("unexpected csv column %q, want %q", col, batchSignupColumns[i])
		}
	}

	var items []BatchSignupItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, badRequest("error parse csv file")
		}
		item := BatchSignupItem{
			Username: record[0],
			Email:    record[1],
			Password: record[2],
		}
		if len(record) > 3 && record[3] != "" {
			name := record[3]
			item.DisplayedName = &name
		}
		if len(record) > 4 && record[4] != "" {
			n, err := strconv.Atoi(record[4])
			if err != nil {
				return nil, badRequest("invalid role %q for user %q", record[4], item.Username)
			}
			role, err := model.RoleFromInt(n)
			if err != nil {
				return nil, badRequest("invalid role %d for user %q", n, item.Username)
			}
			item.Role = &role
		}
		items = append(items, item)
	}
	return items, nil
}

// BatchSignup creates the given users inside one transaction. A row whose
// username or email is already registered resolves to the existing account;
// any invalid row aborts the whole batch before a single commit.
func (s *UserService) BatchSignup(ctx context.Context, actor *model.User, items []BatchSignupItem, courseName *string) ([]model.User, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}

	if courseName != nil {
		if _, err := s.courseRepo.FindByName(ctx, *courseName); err != nil {
			return nil, fmt.Errorf("course %q: %w", *courseName, err)
		}
	}

	users := make([]model.User, 0, len(items))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, item := range items {
			user, err := s.signupOne(ctx, tx, item)
			if err != nil {
				return err
			}
			users = append(users, *user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("batch signup finished", "count", len(users))
	return users, nil
}

func (s *UserService) signupOne(ctx context.Context, tx *sql.Tx, item BatchSignupItem) (*model.User, error) {
	// reuse existing accounts instead of failing the batch
	existing, err := s.userRepo.FindByUsername(ctx, tx, item.Username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user %q: %w", item.Username, err)
	}
	existing, err = s.userRepo.FindByEmail(ctx, tx, item.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email %q: %w", item.Email, err)
	}

	hashed, err := security.HashPassword(item.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	role := model.RoleStudent
	if item.Role != nil {
		role = *item.Role
	}
	user := &model.User{
		Pid:            uuid.NewString(),
		Username:       item.Username,
		Email:          item.Email,
		HashedPassword: hashed,
		APIKey:         "noj-" + uuid.NewString(),
		Role:           role,
		DisplayedName:  item.DisplayedName,
	}
	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", item.Username, err)
	}
	if err := s.userRepo.MarkVerified(ctx, tx, user, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to verify user %q: %w", item.Username, err)
	}
	return user, nil
}

type EditUserRequest struct {
	DisplayedName *string `json:"displayed_name,omitempty"`
	Password      *string `json:"password,omitempty"`
}

// Edit updates a user's displayed name and/or password. Admin only.
func (s *UserService) Edit(ctx context.Context, actor *model.User, userID int64, req EditUserRequest) (*model.User, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Password != nil {
		hashed, err := security.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		if err := s.userRepo.UpdatePassword(ctx, user, hashed); err != nil {
			return nil, err
		}
	}
	if req.DisplayedName != nil {
		if err := s.userRepo.UpdateDisplayedName(ctx, nil, user, req.DisplayedName); err != nil {
			return nil, err
		}
	}
	return user, nil
}
