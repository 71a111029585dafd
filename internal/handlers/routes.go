package handlers

import (
	"inmobiliaria/internal/authz"
	"inmobiliaria/internal/jobs/background"
	"inmobiliaria/internal/middleware"
	"inmobiliaria/internal/services"

	"github.com/labstack/echo/v4"
)

// Services bundles what the HTTP layer needs. Scheduler is nil when jobs
// are disabled.
type Services struct {
	Auth          services.AuthService
	Users         services.UserService
	Clients       services.ClientService
	Properties    services.PropertyService
	PropertyTypes services.PropertyTypeService
	Rentals       services.RentalService
	Sales         services.SaleService
	Documents     services.DocumentService
	Audit         services.AuditLogsService
	Scheduler     *background.JobScheduler
}

// RegisterRoutes mounts the health probes and the /api/v1 surface on e
func RegisterRoutes(e *echo.Echo, svc Services, health *HealthHandlers, version *middleware.VersionMiddleware) {
	e.GET("/health", health.HealthCheck)
	e.GET("/health/ready", health.ReadinessCheck)

	v1 := version.VersionRoute(e, "v1")

	authHandlers := NewAuthHandlers(svc.Auth)
	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)
	auth.POST("/olvide-contrasena", authHandlers.ForgotPassword)
	auth.POST("/restablecer-contrasena", authHandlers.ResetPassword)

	protected := v1.Group("", middleware.JWTMiddleware(svc.Auth))
	protected.GET("/auth/perfil", authHandlers.Profile)

	propertyHandlers := NewPropertyHandlers(svc.Properties)
	properties := protected.Group("/propiedades")
	properties.GET("", propertyHandlers.ListProperties)
	properties.GET("/:id", propertyHandlers.GetProperty)
	properties.POST("", propertyHandlers.CreateProperty, middleware.RequireOperation(authz.PropertyCreate))
	properties.PUT("/:id", propertyHandlers.UpdateProperty, middleware.RequireOperation(authz.PropertyUpdate))
	properties.DELETE("/:id", propertyHandlers.DeactivateProperty, middleware.RequireOperation(authz.PropertyDeactivate))
	properties.DELETE("/:id/permanente", propertyHandlers.DeletePropertyPermanently, middleware.RequireOperation(authz.PropertyDelete))

	typeHandlers := NewPropertyTypeHandlers(svc.PropertyTypes)
	types := protected.Group("/tipos-propiedad")
	types.GET("", typeHandlers.ListTypes)
	types.POST("", typeHandlers.CreateType, middleware.RequireOperation(authz.PropertyTypeManage))
	types.PUT("/:id", typeHandlers.UpdateType, middleware.RequireOperation(authz.PropertyTypeManage))
	types.DELETE("/:id", typeHandlers.DeactivateType, middleware.RequireOperation(authz.PropertyTypeManage))
	types.DELETE("/:id/permanente", typeHandlers.DeleteTypePermanently, middleware.RequireOperation(authz.PropertyTypeDelete))

	rentalHandlers := NewRentalHandlers(svc.Rentals)
	rentals := protected.Group("/alquileres")
	rentals.GET("", rentalHandlers.ListRentals, middleware.RequireOperation(authz.RentalList))
	rentals.GET("/pendientes", rentalHandlers.ListPendingRentals, middleware.RequireOperation(authz.RentalList))
	rentals.GET("/cliente/:clientId", rentalHandlers.ListClientRentals)
	rentals.GET("/:id", rentalHandlers.GetRental)
	rentals.POST("", rentalHandlers.RequestRental)
	rentals.POST("/:id/aprobar", rentalHandlers.ApproveRental, middleware.RequireOperation(authz.RentalApprove))
	rentals.POST("/:id/rechazar", rentalHandlers.RejectRental, middleware.RequireOperation(authz.RentalReject))
	rentals.PUT("/:id", rentalHandlers.UpdateRental, middleware.RequireOperation(authz.RentalUpdate))
	rentals.DELETE("/:id", rentalHandlers.CancelRental)
	rentals.DELETE("/:id/permanente", rentalHandlers.DeleteRental, middleware.RequireOperation(authz.RentalDelete))

	saleHandlers := NewSaleHandlers(svc.Sales)
	sales := protected.Group("/ventas")
	sales.GET("", saleHandlers.ListSales, middleware.RequireOperation(authz.SaleList))
	sales.GET("/pendientes", saleHandlers.ListPendingSales, middleware.RequireOperation(authz.SaleList))
	sales.GET("/cliente/:clientId", saleHandlers.ListClientSales)
	sales.GET("/:id", saleHandlers.GetSale)
	sales.POST("", saleHandlers.RequestSale)
	sales.POST("/:id/aprobar", saleHandlers.ApproveSale, middleware.RequireOperation(authz.SaleApprove))
	sales.POST("/:id/rechazar", saleHandlers.RejectSale, middleware.RequireOperation(authz.SaleReject))
	sales.PUT("/:id", saleHandlers.UpdateSale, middleware.RequireOperation(authz.SaleUpdate))
	sales.DELETE("/:id", saleHandlers.CancelSale)
	sales.DELETE("/:id/permanente", saleHandlers.DeleteSale, middleware.RequireOperation(authz.SaleDelete))

	clientHandlers := NewClientHandlers(svc.Clients)
	clients := protected.Group("/clientes")
	clients.GET("", clientHandlers.ListClients, middleware.RequireOperation(authz.ClientList))
	clients.GET("/:id", clientHandlers.GetClient)
	clients.POST("", clientHandlers.CreateClient, middleware.RequireOperation(authz.ClientCreate))
	clients.PUT("/:id", clientHandlers.UpdateClient)
	clients.DELETE("/:id", clientHandlers.DeactivateClient, middleware.RequireOperation(authz.ClientDeactivate))

	userHandlers := NewUserHandlers(svc.Users)
	users := protected.Group("/usuarios")
	users.GET("", userHandlers.ListUsers, middleware.RequireOperation(authz.UserList))
	users.GET("/inactivos", userHandlers.ListInactiveUsers, middleware.RequireOperation(authz.UserList))
	users.GET("/:id", userHandlers.GetUser)
	users.POST("", userHandlers.CreateUser, middleware.RequireOperation(authz.UserCreate))
	users.PUT("/:id", userHandlers.UpdateUser)
	users.DELETE("/:id", userHandlers.DeactivateUser, middleware.RequireOperation(authz.UserDeactivate))
	users.PATCH("/:id/restaurar", userHandlers.RestoreUser, middleware.RequireOperation(authz.UserRestore))
	users.DELETE("/:id/permanente", userHandlers.DeleteUserPermanently, middleware.RequireOperation(authz.UserDelete))

	documentHandlers := NewDocumentHandlers(svc.Documents)
	pdf := protected.Group("/pdf")
	pdf.GET("/alquiler/:id", documentHandlers.RentalContract)
	pdf.GET("/venta/:id", documentHandlers.SaleReceipt)

	auditHandlers := NewAuditLogsHandlers(svc.Audit)
	protected.GET("/auditoria", auditHandlers.ListAuditLogs, middleware.RequireOperation(authz.AuditList))

	if svc.Scheduler != nil {
		jobHandlers := NewJobHandlers(svc.Scheduler)
		jobs := protected.Group("/jobs", middleware.RequireOperation(authz.JobRun))
		jobs.GET("", jobHandlers.ListJobs)
		jobs.POST("/rental-expiry", jobHandlers.RunRentalExpiry)
	}
}
