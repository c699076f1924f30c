// Package router wires the users HTTP API: it maps every route to a
// storage operation and translates the outcome into a status code and
// a JSON body. Each handler returns right after writing an error.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/usersvc/internal/db/storage"
	"github.com/patric-chuzhbe/usersvc/internal/gzippedhttp"
	"github.com/patric-chuzhbe/usersvc/internal/logger"
	"github.com/patric-chuzhbe/usersvc/internal/models"
)

const (
	errMsgBadJSON         = "request body is not a valid JSON"
	errMsgNameRequired    = "name in body is required"
	errMsgIDNotFound      = "user id not found as uri parameter"
	errMsgUserNotFound    = "user with id in uri not found"
	errMsgUnknownURIParam = "unknown uri parameter"
	errMsgInternal        = "internal server error"
)

type usersReader interface {
	ListAll(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, bool, error)
}

type usersWriter interface {
	Create(ctx context.Context, name string) (models.User, error)
	Update(ctx context.Context, id int64, name string) (models.User, error)
	DeleteByID(ctx context.Context, id int64) error
}

type usersCleaner interface {
	Clear(ctx context.Context) error
}

type storageKeeper interface {
	usersReader
	usersWriter
	usersCleaner
}

type trustedChecker interface {
	TrustedOnly(h http.Handler) http.Handler
}

type Router struct {
	db       storageKeeper
	validate *validator.Validate
}

type initOptions struct {
	enableTestRoutes bool
}

type InitOption func(*initOptions)

// WithTestRoutes registers DELETE /__test__/data. Never enable it in production.
func WithTestRoutes(enable bool) InitOption {
	return func(options *initOptions) {
		options.enableTestRoutes = enable
	}
}

func New(
	db storageKeeper,
	ipChecker trustedChecker,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	theRouter := &Router{
		db:       db,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipJSONRequest,
	)

	router.Group(func(r chi.Router) {
		r.Use(gzippedhttp.GzipResponse)
		r.Get(`/users`, theRouter.GetUsers)
		r.Get(`/user/{id}`, theRouter.GetUser)
		r.Post(`/user`, theRouter.PostUser)
		r.Put(`/user/{id}`, theRouter.PutUser)
	})

	router.Delete(`/user/`, theRouter.DeleteUser)
	router.Delete(`/user/{id}`, theRouter.DeleteUser)

	if options.enableTestRoutes {
		router.With(ipChecker.TrustedOnly).Delete(`/__test__/data`, theRouter.DeleteTestdata)
	}

	return router
}

// GetUsers answers 200 with every stored user, `[]` when there are none.
func (router *Router) GetUsers(response http.ResponseWriter, request *http.Request) {
	users, err := router.db.ListAll(request.Context())
	if err != nil {
		writeInternalError(response, "GetUsers", err)
		return
	}

	writeJSON(response, http.StatusOK, models.Users(users))
}

// GetUser answers 200 with an array of zero or one user, or 404 when the
// id in the path is not a positive integer.
func (router *Router) GetUser(response http.ResponseWriter, request *http.Request) {
	id, ok := parsePositiveID(request)
	if !ok {
		writeError(response, http.StatusNotFound, errMsgIDNotFound)
		return
	}

	usr, found, err := router.db.FindByID(request.Context(), id)
	if err != nil {
		writeInternalError(response, "GetUser", err)
		return
	}

	result := models.Users{}
	if found {
		result = append(result, usr)
	}

	writeJSON(response, http.StatusOK, result)
}

// PostUser answers 201 with the created user or 400 when name is missing.
func (router *Router) PostUser(response http.ResponseWriter, request *http.Request) {
	body, ok := router.decodeUserRequest(response, request)
	if !ok {
		return
	}

	usr, err := router.db.Create(request.Context(), body.Name)
	if err != nil {
		router.writeStorageError(response, "PostUser", err)
		return
	}

	writeJSON(response, http.StatusCreated, usr)
}

// PutUser answers 201 with the renamed user. The name is checked before the
// id, so an empty name is a 400 even for an unknown id.
func (router *Router) PutUser(response http.ResponseWriter, request *http.Request) {
	body, ok := router.decodeUserRequest(response, request)
	if !ok {
		return
	}

	id, ok := parsePositiveID(request)
	if !ok {
		writeError(response, http.StatusNotFound, errMsgUserNotFound)
		return
	}

	usr, err := router.db.Update(request.Context(), id, body.Name)
	if err != nil {
		router.writeStorageError(response, "PutUser", err)
		return
	}

	writeJSON(response, http.StatusCreated, usr)
}

// DeleteUser answers 204 whether or not the user existed.
func (router *Router) DeleteUser(response http.ResponseWriter, request *http.Request) {
	rawID := chi.URLParam(request, "id")
	if rawID == "" {
		writeError(response, http.StatusBadRequest, errMsgUnknownURIParam)
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(response, http.StatusBadRequest, errMsgUnknownURIParam)
		return
	}

	if err := router.db.DeleteByID(request.Context(), id); err != nil {
		writeInternalError(response, "DeleteUser", err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// DeleteTestdata wipes the storage between automated test cases.
func (router *Router) DeleteTestdata(response http.ResponseWriter, request *http.Request) {
	if err := router.db.Clear(request.Context()); err != nil {
		writeInternalError(response, "DeleteTestdata", err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

func (router *Router) decodeUserRequest(response http.ResponseWriter, request *http.Request) (models.UserRequest, bool) {
	var body models.UserRequest
	decoder := json.NewDecoder(request.Body)
	if err := decoder.Decode(&body); err != nil {
		logger.Log.Debugln("cannot decode user request body:", err)
		writeError(response, http.StatusBadRequest, errMsgBadJSON)
		return models.UserRequest{}, false
	}

	// the body must hold exactly one JSON value
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		logger.Log.Debugln("trailing data after user request body:", err)
		writeError(response, http.StatusBadRequest, errMsgBadJSON)
		return models.UserRequest{}, false
	}

	if err := router.validate.Struct(body); err != nil {
		logger.Log.Debugln("user request validation failed:", err)
		writeError(response, http.StatusBadRequest, errMsgNameRequired)
		return models.UserRequest{}, false
	}

	return body, true
}

func (router *Router) writeStorageError(response http.ResponseWriter, handler string, err error) {
	switch {
	case errors.Is(err, storage.ErrValidation):
		writeError(response, http.StatusBadRequest, errMsgNameRequired)
	case errors.Is(err, storage.ErrNotFound):
		writeError(response, http.StatusNotFound, errMsgUserNotFound)
	default:
		writeInternalError(response, handler, err)
	}
}

func parsePositiveID(request *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}

	return id, true
}

func writeInternalError(response http.ResponseWriter, handler string, err error) {
	logger.Log.Errorw("storage failure", "handler", handler, "error", err)
	writeError(response, http.StatusInternalServerError, errMsgInternal)
}

func writeError(response http.ResponseWriter, status int, message string) {
	writeJSON(response, status, models.ErrorResponse{Error: message})
}

func writeJSON(response http.ResponseWriter, status int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)

	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("cannot write the response body:", err)
	}
}
