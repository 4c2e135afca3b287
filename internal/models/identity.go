package models

import "github.com/google/uuid"

// Role — роль пользователя, выданная auth-сервисом.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Identity — уже аутентифицированный пользователь.
// Сервис не проверяет учётные данные, только использует Identity для авторства и прав.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsModerator — может ли пользователь выполнять действия модерации.
func (i Identity) IsModerator() bool {
	return i.Role == RoleModerator || i.Role == RoleAdmin
}

// IsAnonymous — запрос без идентичности.
func (i Identity) IsAnonymous() bool { return i.UserID == uuid.Nil }

// CanManage — владелец статьи или модератор.
func (i Identity) CanManage(a *Article) bool {
	return !i.IsAnonymous() && (i.UserID == a.AuthorID || i.IsModerator())
}
