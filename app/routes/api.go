package routes

import (
	"github.com/bistroboss/bistro/app/controllers"
	"github.com/bistroboss/bistro/pkg/middleware"
	"github.com/bistroboss/bistro/pkg/rbac"
	"github.com/bistroboss/bistro/pkg/router"
)

// API bundles what the route table needs. Every field is required.
type API struct {
	Tokens middleware.TokenVerifier
	Roles  rbac.RoleLookup

	Health   *controllers.HealthController
	Auth     *controllers.AuthController
	Users    *controllers.UserController
	Menu     *controllers.MenuController
	Carts    *controllers.CartController
	Payments *controllers.PaymentController
	Stats    *controllers.StatsController
}

func RegisterAPI(r *router.Router, api API) {
	authed := middleware.Authenticate(api.Tokens)
	admin := rbac.RequireAdmin(api.Roles)

	r.Get("/", "home", api.Health.Home)
	r.Get("/healthz", "health", api.Health.Health)

	r.Post("/jwt", "auth.token", api.Auth.Token)

	users := r.Group("/users")
	users.Get("", "users.index", api.Users.Index, authed, admin)
	users.Post("", "users.store", api.Users.Store)
	users.Get("/admin/{email}", "users.is_admin", api.Users.IsAdmin, authed, rbac.Owner("email"))
	users.Patch("/admin/{id}", "users.promote", api.Users.Promote, authed, admin)

	r.Get("/menu", "menu.index", api.Menu.Index)
	r.Post("/menu", "menu.store", api.Menu.Store, authed, admin)
	r.Delete("/menu/{id}", "menu.destroy", api.Menu.Destroy, authed, admin)
	r.Get("/reviews", "reviews.index", api.Menu.Reviews)

	r.Get("/carts", "carts.index", api.Carts.Index, authed, rbac.OwnerQuery("email"))
	r.Post("/carts", "carts.store", api.Carts.Store)
	r.Delete("/carts/{id}", "carts.destroy", api.Carts.Destroy)

	r.Post("/create-payment-intent", "payments.intent", api.Payments.CreateIntent)
	r.Get("/payments/{email}", "payments.index", api.Payments.Index, authed, rbac.Owner("email"))
	r.Post("/payments", "payments.store", api.Payments.Store)

	r.Get("/admin-stats", "stats.admin", api.Stats.Admin, authed, admin)
	r.Get("/user-stats", "stats.user", api.Stats.User, authed)
	r.Get("/order-stats", "stats.orders", api.Stats.Orders, authed, admin)
}
