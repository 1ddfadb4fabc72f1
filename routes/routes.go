package routes

import (
	"net/http"

	"evenza/auth"
	"evenza/listings"
	"evenza/middleware"
	"evenza/notifications"
	"evenza/orders"
	"evenza/payments"
	"evenza/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/uploads/screenshots/*filepath", http.Dir("static/uploads/screenshots"))
	router.ServeFiles("/uploads/listingpic/*filepath", http.Dir("static/uploads/listingpic"))
}

func AddAuthRoutes(router *httprouter.Router) {
	router.POST("/api/auth/register", ratelim.RateLimit(auth.Register))
	router.POST("/api/auth/login", ratelim.RateLimit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
	router.POST("/api/auth/token/refresh", ratelim.RateLimit(auth.RefreshToken))
}

func AddListingRoutes(router *httprouter.Router) {
	vendorOnly := middleware.Chain(middleware.Authenticate, middleware.RequireRoles("vendor"))

	router.GET("/api/listings", listings.ListListings)
	router.GET("/api/listings/:id", listings.GetListing)
	router.POST("/api/listings", vendorOnly(listings.CreateListing))
	router.PUT("/api/listings/:id", vendorOnly(listings.EditListing))
	router.POST("/api/listings/:id/packages", vendorOnly(listings.AddPackage))
	router.DELETE("/api/listings/:id/packages/:packageid", vendorOnly(listings.DeactivatePackage))
	router.POST("/api/listings/:id/images", vendorOnly(listings.UploadListingImage))
}

func AddOrderRoutes(router *httprouter.Router) {
	vendorOnly := middleware.Chain(middleware.Authenticate, middleware.RequireRoles("vendor"))

	router.POST("/api/orders", ratelim.RateLimit(middleware.OptionalAuth(orders.CreateOrder)))
	router.GET("/api/orders/:orderid", middleware.OptionalAuth(orders.GetOrder))
	router.GET("/api/orders", middleware.OptionalAuth(orders.ListMyOrders))
	router.GET("/api/vendor/orders", vendorOnly(orders.ListVendorOrders))

	router.PUT("/api/orders/:orderid/status", middleware.Authenticate(orders.UpdateOrderStatus))
	router.POST("/api/orders/:orderid/cancel", middleware.Authenticate(orders.CancelOrder))
	router.POST("/api/orders/:orderid/complete", middleware.Authenticate(orders.CompleteOrder))
	router.POST("/api/orders/:orderid/notes", middleware.Authenticate(orders.AddOrderNote))
	router.POST("/api/orders/:orderid/accept", vendorOnly(orders.AcceptOrder))
	router.POST("/api/orders/:orderid/rating", middleware.Authenticate(orders.RateOrder))

	router.GET("/api/orders/:orderid/receipt", middleware.Authenticate(orders.PrintReceipt))
	router.GET("/ws/orders/:orderid", orders.OrderUpdatesWS)
}

func AddPaymentRoutes(router *httprouter.Router) {
	vendorOnly := middleware.Chain(middleware.Authenticate, middleware.RequireRoles("vendor"))

	router.POST("/api/orders/:orderid/payments",
		ratelim.RateLimit(middleware.OptionalAuth(payments.Idempotent(payments.SubmitPayment))))
	router.GET("/api/vendor/payments/pending", vendorOnly(payments.ListPendingSubmissions))
	router.POST("/api/payments/:id/approve", vendorOnly(payments.Idempotent(payments.ApproveSubmission)))
	router.POST("/api/payments/:id/reject", vendorOnly(payments.Idempotent(payments.RejectSubmission)))
}

func AddNotificationRoutes(router *httprouter.Router) {
	router.GET("/api/notifications", middleware.Authenticate(notifications.GetNotifications))
	router.GET("/api/notifications/unread", middleware.Authenticate(notifications.GetUnreadCount))
	router.PUT("/api/notifications/:id/read", middleware.Authenticate(notifications.MarkRead))
}
