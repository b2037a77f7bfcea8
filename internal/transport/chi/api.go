package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface lists every HTTP operation of the API.
type ServerInterface interface {
	// (POST /ai/upload)
	UploadDocument(w http.ResponseWriter, r *http.Request)
	// (POST /ai/query)
	QueryModule(w http.ResponseWriter, r *http.Request)
	// (GET /ai/modules)
	ListModules(w http.ResponseWriter, r *http.Request)
	// (DELETE /ai/modules/{module})
	DeleteModule(w http.ResponseWriter, r *http.Request, module string)
	// (GET /chats/all)
	ListChats(w http.ResponseWriter, r *http.Request)
	// (GET /chats/find/{id})
	FindChat(w http.ResponseWriter, r *http.Request, id string)
	// (GET /chats/users/{userId})
	ListUserChats(w http.ResponseWriter, r *http.Request, userID string)
	// (GET /chats/last/{userId})
	LastUserChat(w http.ResponseWriter, r *http.Request, userID string)
	// (POST /chats/add)
	AddChat(w http.ResponseWriter, r *http.Request)
	// (DELETE /chats/delete)
	DeleteChat(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError is reported when a path parameter fails to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures route registration.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

type serverInterfaceWrapper struct {
	handler          ServerInterface
	middlewares      []func(http.Handler) http.Handler
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) wrap(h http.Handler) http.Handler {
	for _, m := range siw.middlewares {
		h = m(h)
	}
	return h
}

func (siw *serverInterfaceWrapper) plain(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siw.wrap(http.HandlerFunc(fn)).ServeHTTP(w, r)
	}
}

// withPathParam binds a required simple-style path parameter and calls fn with it.
func (siw *serverInterfaceWrapper) withPathParam(
	name string, fn func(http.ResponseWriter, *http.Request, string),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var value string
		err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
			return
		}
		siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, value)
		})).ServeHTTP(w, r)
	}
}

// HandlerWithOptions registers every route of si on the configured router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := &serverInterfaceWrapper{
		handler:          si,
		middlewares:      options.Middlewares,
		errorHandlerFunc: options.ErrorHandlerFunc,
	}
	base := options.BaseURL

	r.Group(func(r chi.Router) {
		r.Post(base+"/ai/upload", wrapper.plain(si.UploadDocument))
		r.Post(base+"/ai/query", wrapper.plain(si.QueryModule))
		r.Get(base+"/ai/modules", wrapper.plain(si.ListModules))
		r.Delete(base+"/ai/modules/{module}", wrapper.withPathParam("module", si.DeleteModule))

		r.Get(base+"/chats/all", wrapper.plain(si.ListChats))
		r.Get(base+"/chats/find/{id}", wrapper.withPathParam("id", si.FindChat))
		r.Get(base+"/chats/users/{userId}", wrapper.withPathParam("userId", si.ListUserChats))
		r.Get(base+"/chats/last/{userId}", wrapper.withPathParam("userId", si.LastUserChat))
		r.Post(base+"/chats/add", wrapper.plain(si.AddChat))
		r.Delete(base+"/chats/delete", wrapper.plain(si.DeleteChat))

		r.Get(base+"/health", wrapper.plain(si.HealthCheck))
		r.Get(base+"/metrics", wrapper.plain(si.Metrics))
	})
	return r
}
