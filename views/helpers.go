package views

import (
	"context"

	"github.com/AdamBeresnev/kickabout/internal/middleware"
	users "github.com/AdamBeresnev/kickabout/internal/user"
)

func GetUser(ctx context.Context) *users.User {
	return middleware.GetAuthenticatedUser(ctx)
}
