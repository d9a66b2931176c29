package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users/api/transport"
	"github.com/fastygo/users/domain"
	"github.com/fastygo/users/pkg/httpcontext"
	"github.com/fastygo/users/pkg/jsonpatch"
	userUC "github.com/fastygo/users/usecase/user"
	"github.com/fastygo/users/validation"
)

// ContentTypeJSONPatch is the media type of PATCH /api/users/{id} bodies.
const ContentTypeJSONPatch = "application/json-patch+json"

type UserHandler struct {
	baseHandler
	uc        *userUC.UseCase
	validator *validation.Validator
}

func NewUserHandler(uc *userUC.UseCase, validator *validation.Validator, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	if validator == nil {
		validator = validation.New(nil)
	}
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		validator:   validator,
	}
}

// @Summary Get user
// @Tags users
// @Router /api/users/{id} [get]
func (h *UserHandler) Get(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Create user from a JSON body
// @Tags users
// @Router /api/users/new [post]
func (h *UserHandler) CreateJSON(ctx *fasthttp.RequestCtx) {
	user, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, user)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Create user from form fields
// @Tags users
// @Router /api/users [post]
func (h *UserHandler) CreateForm(ctx *fasthttp.RequestCtx) {
	req := transport.UserRequest{}
	req.Email, _ = formValue(ctx, "email")
	req.FirstName, _ = formValue(ctx, "firstName")
	req.LastName, _ = formValue(ctx, "lastName")
	req.Birthday, _ = formValue(ctx, "birthday")
	req.Address = optionalForm(ctx, "address")
	req.Phone = optionalForm(ctx, "phone")

	if err := h.validator.Struct(req); err != nil {
		h.respondError(ctx, err)
		return
	}
	user, err := req.ToUser()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateFields(stdCtx, userUC.CreateParams{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Birthday:  user.Birthday,
		Address:   user.Address,
		Phone:     user.Phone,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update the given fields of a user
// @Tags users
// @Router /api/users/{id} [put]
func (h *UserHandler) UpdatePartial(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	req := transport.UpdateRequest{
		Email:     optionalForm(ctx, "email"),
		FirstName: optionalForm(ctx, "firstName"),
		LastName:  optionalForm(ctx, "lastName"),
		Birthday:  optionalForm(ctx, "birthday"),
		Address:   optionalForm(ctx, "address"),
		Phone:     optionalForm(ctx, "phone"),
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(ctx, err)
		return
	}
	birthday, err := transport.OptionalDate("birthday", req.Birthday)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, userUC.UpdateParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthday:  birthday,
		Address:   req.Address,
		Phone:     req.Phone,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Replace a user
// @Tags users
// @Router /api/users [put]
func (h *UserHandler) Replace(ctx *fasthttp.RequestCtx) {
	user, ok := h.parseUser(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	replaced, err := h.uc.Replace(stdCtx, user)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, replaced)
}

// @Summary Apply a JSON patch to a user
// @Tags users
// @Router /api/users/{id} [patch]
func (h *UserHandler) Patch(ctx *fasthttp.RequestCtx) {
	if !acceptsPatch(string(ctx.Request.Header.ContentType())) {
		h.respondJSON(ctx, http.StatusUnsupportedMediaType,
			transport.NewError("UNSUPPORTED_MEDIA_TYPE", "expected "+ContentTypeJSONPatch, nil))
		return
	}
	id, err := pathID(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	patch, err := jsonpatch.Decode(ctx.PostBody())
	if err != nil {
		h.respondError(ctx, domain.PatchFailed(err))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patched, err := h.uc.Patch(stdCtx, id, patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, patched)
}

// @Summary Delete a user
// @Tags users
// @Router /api/users/{id} [delete]
func (h *UserHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, err := pathID(ctx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if _, err := h.uc.Delete(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

// @Summary Search users by birthday
// @Tags users
// @Router /api/users [get]
func (h *UserHandler) Search(ctx *fasthttp.RequestCtx) {
	query := transport.SearchQuery{
		From: nonBlank(optionalForm(ctx, "from")),
		To:   nonBlank(optionalForm(ctx, "to")),
	}
	if err := h.validator.Struct(query); err != nil {
		h.respondError(ctx, err)
		return
	}
	from, to, err := query.Dates()
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if err := h.validator.Range(from, to); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.Search(stdCtx, from, to)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if len(users) == 0 {
		h.respondNoContent(ctx)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, users)
}

func (h *UserHandler) parseUser(ctx *fasthttp.RequestCtx) (*domain.User, bool) {
	var req transport.UserRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err))
		return nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(ctx, err)
		return nil, false
	}
	user, err := req.ToUser()
	if err != nil {
		h.respondError(ctx, err)
		return nil, false
	}
	return user, true
}

func acceptsPatch(contentType string) bool {
	mediaType, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case "", ContentTypeJSONPatch, "application/json":
		return true
	default:
		return false
	}
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
