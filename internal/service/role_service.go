package service

import (
	"context"
	"errors"
	"fmt"

	"training-erp/internal/model"
	"training-erp/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

type roleService struct {
	roleRepo  repository.RoleRepository
	txManager repository.TransactionManager
}

func NewRoleService(roleRepo repository.RoleRepository, txManager repository.TransactionManager) RoleService {
	return &roleService{roleRepo: roleRepo, txManager: txManager}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.roleRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.roleRepo.FindByIDWithPermissions(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.roleRepo.Create(txCtx, &role); err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		if len(req.Permissions) > 0 {
			permIDs := make([]uuid.UUID, 0, len(req.Permissions))
			for _, pid := range req.Permissions {
				parsed, parseErr := uuid.Parse(pid)
				if parseErr != nil {
					return fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
				}
				permIDs = append(permIDs, parsed)
			}
			if err := s.roleRepo.UpdatePermissions(txCtx, role.ID, permIDs); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload with permissions
	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.roleRepo.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("role not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to fetch role: %w", err)
	}

	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s'", role.Name)
	}

	// Clear associations before deleting
	if err := s.roleRepo.UpdatePermissions(ctx, roleID, nil); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}

	if err := s.roleRepo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.roleRepo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	if _, err := s.roleRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}

	permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
	for _, pid := range req.PermissionIDs {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid permission id '%s': %w", pid, parseErr)
		}
		permIDs = append(permIDs, parsed)
	}

	if err := s.roleRepo.UpdatePermissions(ctx, id, permIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	return s.GetRole(ctx, roleID)
}

func (s *roleService) GetPermissionsByRoleName(ctx context.Context, roleName string) ([]string, error) {
	codes, err := s.roleRepo.GetPermissionsByRoleName(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("role '%s' not found: %w", roleName, err)
	}
	return codes, nil
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	// Define all permissions
	defaultPermissions := []model.Permission{
		{Code: "dashboard.read", Name: "View dashboard and costing overview", Group: "dashboard"},
		{Code: "payments.read", Name: "View payment records", Group: "payments"},
		{Code: "payments.write", Name: "Create payment records and cost components", Group: "payments"},
		{Code: "rates.read", Name: "View cost summary rates", Group: "rates"},
		{Code: "rates.write", Name: "Manage cost summary rates", Group: "rates"},
		{Code: "cost_summaries.read", Name: "View cost summaries", Group: "costing"},
		{Code: "cost_summaries.write", Name: "Create and refresh cost summaries", Group: "costing"},
		{Code: "special_cases.read", Name: "View special case payments", Group: "costing"},
		{Code: "special_cases.write", Name: "Allocate and pay special case payments", Group: "costing"},
		{Code: "approvals.write", Name: "Record approval decisions on payment records", Group: "costing"},
		{Code: "students.read", Name: "View students and enrollments", Group: "students"},
		{Code: "students.write", Name: "Enroll students and assign codes", Group: "students"},
		{Code: "users.read", Name: "View users", Group: "users"},
		{Code: "users.write", Name: "Manage users", Group: "users"},
		{Code: "users.delete", Name: "Delete users", Group: "users"},
		{Code: "audit.read", Name: "View audit logs", Group: "audit"},
		{Code: "roles.manage", Name: "Manage roles and permissions", Group: "roles"},
	}

	// Upsert permissions
	for i := range defaultPermissions {
		p := &defaultPermissions[i]
		if err := s.roleRepo.FindOrCreatePermission(ctx, p); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
		}
	}

	permByCode := make(map[string]model.Permission, len(defaultPermissions))
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
	}

	allCodes := make([]string, 0, len(defaultPermissions))
	for _, p := range defaultPermissions {
		allCodes = append(allCodes, p.Code)
	}

	// Define roles with their permissions
	roleDefinitions := map[string]struct {
		Description string
		PermCodes   []string
	}{
		model.RoleSuperAdmin: {
			Description: "Full system access",
			PermCodes:   allCodes,
		},
		model.RoleFinanceManager: {
			Description: "Manages rates, cost summaries and special case payments",
			PermCodes: []string{
				"dashboard.read",
				"payments.read", "payments.write",
				"rates.read", "rates.write",
				"cost_summaries.read", "cost_summaries.write",
				"special_cases.read", "special_cases.write",
				"approvals.write",
				"audit.read",
			},
		},
		model.RoleCTM: {
			Description: "Course training manager — reviews and approves costing",
			PermCodes: []string{
				"dashboard.read",
				"payments.read",
				"rates.read",
				"cost_summaries.read", "cost_summaries.write",
				"special_cases.read",
				"approvals.write",
			},
		},
		model.RoleDCTM01: {
			Description: "Deputy course training manager 01 — reviews costing",
			PermCodes: []string{
				"dashboard.read",
				"payments.read",
				"cost_summaries.read",
				"special_cases.read",
				"approvals.write",
			},
		},
		model.RoleDCTM02: {
			Description: "Deputy course training manager 02 — reviews costing",
			PermCodes: []string{
				"dashboard.read",
				"payments.read",
				"cost_summaries.read",
				"special_cases.read",
				"approvals.write",
			},
		},
		model.RoleSectionalHead: {
			Description: "Sectional head — reviews costing for owned sections",
			PermCodes: []string{
				"dashboard.read",
				"payments.read",
				"cost_summaries.read",
				"special_cases.read",
				"approvals.write",
			},
		},
		model.RoleCoordinator: {
			Description: "Course coordinator — owns payment records and enrollments",
			PermCodes: []string{
				"payments.read", "payments.write",
				"cost_summaries.read", "cost_summaries.write",
				"special_cases.read", "special_cases.write",
				"students.read", "students.write",
			},
		},
	}

	for roleName, def := range roleDefinitions {
		role, err := s.roleRepo.FindByName(ctx, roleName)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up role '%s': %w", roleName, err)
			}
			role = &model.Role{
				Name:        roleName,
				Description: def.Description,
				IsSystem:    true,
			}
			if err := s.roleRepo.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
			}
		}

		permIDs := make([]uuid.UUID, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				permIDs = append(permIDs, p.ID)
			}
		}
		if err := s.roleRepo.UpdatePermissions(ctx, role.ID, permIDs); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
		}
	}

	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}
