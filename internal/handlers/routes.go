package handlers

import (
	"github.com/gin-gonic/gin"
)

// Controllers bundles every HTTP controller mounted under /api.
type Controllers struct {
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Friends  *FriendHandler
	Projects *ProjectHandler
	Cards    *CardHandler
	Tasks    *TaskHandler
	Chats    *ChatHandler
	Search   *SearchHandler
	Upload   *UploadHandler
	Payments *PaymentHandler

	// CallbackMethod is GET or POST.
	CallbackMethod string
}

// RegisterRoutes mounts the API. guard protects every route except registration,
// login and the payment callback; loginLimit throttles the credential endpoints.
func RegisterRoutes(router gin.IRouter, ctl Controllers, guard, loginLimit gin.HandlerFunc) {
	api := router.Group("/api")

	api.POST("/auth/register", loginLimit, ctl.Auth.Register)
	api.POST("/auth/login", loginLimit, ctl.Auth.Login)
	api.Handle(ctl.CallbackMethod, "/payment/callback", ctl.Payments.Callback)

	authed := api.Group("", guard)

	authed.POST("/auth/logout", ctl.Auth.Logout)
	authed.GET("/auth/me", ctl.Auth.Me)

	authed.GET("/users/:id", ctl.Profile.GetUser)
	authed.GET("/profile", ctl.Profile.GetProfile)
	authed.PUT("/profile/edit", ctl.Profile.Edit)
	authed.PUT("/profile/password/change", ctl.Profile.ChangePassword)

	authed.GET("/search", ctl.Search.Search)
	authed.GET("/overview", ctl.Search.Overview)

	authed.GET("/friends", ctl.Friends.List)
	authed.GET("/friends/requests", ctl.Friends.Requests)
	authed.POST("/friends/:id/request", ctl.Friends.Request)
	authed.POST("/friends/:id/accept", ctl.Friends.Accept)
	authed.DELETE("/friends/:id", ctl.Friends.Remove)

	authed.POST("/projects", ctl.Projects.Create)
	authed.GET("/projects", ctl.Projects.List)
	authed.GET("/projects/:id", ctl.Projects.Get)
	authed.PUT("/projects/:id", ctl.Projects.Update)
	authed.POST("/projects/:id/members", ctl.Projects.AddMember)
	authed.DELETE("/projects/:id/members/:userId", ctl.Projects.RemoveMember)

	authed.POST("/projects/:id/cards", ctl.Cards.Create)
	authed.GET("/projects/:id/cards", ctl.Cards.ListByProject)
	authed.GET("/cards", ctl.Cards.Feed)

	authed.POST("/projects/:id/tasks", ctl.Tasks.Create)
	authed.GET("/projects/:id/tasks", ctl.Tasks.List)
	authed.PUT("/tasks/:id", ctl.Tasks.Update)

	authed.GET("/chats", ctl.Chats.ListChats)
	authed.POST("/chats/private", ctl.Chats.StartChat)
	authed.GET("/chats/:id/messages", ctl.Chats.GetChatMessages)
	authed.POST("/chats/:id/messages", ctl.Chats.PostChatMessage)

	authed.GET("/upload/presigned", ctl.Upload.Presign)

	authed.POST("/payment/cards/:id", ctl.Payments.Checkout)
}
