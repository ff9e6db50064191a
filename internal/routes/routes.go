package routes

import (
	"github.com/gin-gonic/gin"

	"devicereg/internal/authz"
	"devicereg/internal/handlers"
	"devicereg/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	registrants *authz.Registrants,
	authHandler *handlers.AuthHandler,
	selfDestructHandler *handlers.SelfDestructHandler,
	statusStreamHandler *handlers.StatusStreamHandler,
	utmHandler *handlers.UTMHandler,
	deviceHandler *handlers.DeviceHandler,
	reportHandler *handlers.ReportHandler,
	systemHandler *handlers.SystemHandler,
) *gin.Engine {
	r.SetHTMLTemplate(handlers.Templates())

	// ---- public
	r.GET("/", systemHandler.RegistrationForm)
	r.GET("/healthz", systemHandler.Healthz)
	r.GET("/metrics", systemHandler.Metrics)
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/selfdestruct", selfDestructHandler.Get)
	r.GET("/selfdestruct/ws", statusStreamHandler.Stream)
	r.GET("/get_utm_link", utmHandler.Get)
	r.POST("/register_device", deviceHandler.Register)

	// ---- registrant basic auth
	protected := r.Group("/", middleware.BasicAuth(registrants))
	{
		protected.GET("/protected", authHandler.Protected)
		protected.POST("/set_self_destruct", selfDestructHandler.Set)
		protected.POST("/self_destruct_device", selfDestructHandler.Wipe)
		protected.POST("/set_utm_link", utmHandler.Set)
		protected.GET("/registered_accounts", reportHandler.RegisteredAccounts)
		protected.GET("/registered_accounts/report", reportHandler.AccountsPDF)
	}

	return r
}
