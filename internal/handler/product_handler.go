package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"product-catalog/internal/model"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// createProductForm holds the parsed fields of POST /products.
type createProductForm struct {
	Name     string
	Price    decimal.Decimal
	Quantity int `validate:"gt=0"`
}

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service        service.ProductService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, maxUploadBytes int64, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "product").Logger(),
	}
}

// FindAll handles GET /products. The route does not read pagination
// parameters and always serves the first page of ten.
func (h *ProductHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.FindAll(r.Context(), service.DefaultPage, service.DefaultLimit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products, h.logger)
}

// FindOne handles GET /products/{id}.
func (h *ProductHandler) FindOne(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if product == nil {
		h.writeServiceError(w, r, model.NewProductNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, product, h.logger)
}

// Create handles POST /products with a multipart body carrying name, price,
// quantity and photo.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	form := createProductForm{Name: r.PostFormValue("name")}

	quantity, err := parseQuantity(r.PostFormValue("quantity"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidForm, "quantity must be an integer", h.logger)
		return
	}
	form.Quantity = quantity

	price, err := decimal.NewFromString(strings.TrimSpace(r.PostFormValue("price")))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidPrice, "price must be a number", h.logger)
		return
	}
	form.Price = price.Round(2)

	if err := validate.Struct(form); err != nil {
		h.writeServiceError(w, r, model.ErrInvalidQuantity)
		return
	}

	photo, closePhoto, err := h.formPhoto(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidForm, "failed to read photo", h.logger)
		return
	}
	if photo == nil {
		h.writeServiceError(w, r, model.ErrPhotoRequired)
		return
	}
	defer closePhoto()

	product, err := h.service.Create(r.Context(), model.CreateProductInput{
		Name:     form.Name,
		Price:    form.Price,
		Quantity: form.Quantity,
	}, *photo)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, product, h.logger)
}

// Update handles PATCH /products/{id}. Every field is optional. The response
// is the product as it was before the update.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if !h.parseForm(w, r) {
		return
	}

	snapshot, err := h.service.FindOne(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if snapshot == nil {
		h.writeServiceError(w, r, model.NewProductNotFoundError(id))
		return
	}

	var input model.UpdateProductInput

	if name, ok := formValue(r, "name"); ok {
		input.Name = &name
	}

	if raw, ok := formValue(r, "price"); ok && strings.TrimSpace(raw) != "" {
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidPrice, "price must be a number", h.logger)
			return
		}
		price = price.Round(2)
		input.Price = &price
	}

	if raw, ok := formValue(r, "quantity"); ok && strings.TrimSpace(raw) != "" {
		quantity, err := parseQuantity(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidForm, "quantity must be an integer", h.logger)
			return
		}
		input.Quantity = &quantity
	}

	photo, closePhoto, err := h.formPhoto(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidForm, "failed to read photo", h.logger)
		return
	}
	if photo != nil {
		defer closePhoto()
	}

	if _, err := h.service.Update(r.Context(), id, input, photo); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot, h.logger)
}

// Remove handles DELETE /products/{id}?quantityToRemove=N.
func (h *ProductHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	quantity, err := parseQuantity(r.URL.Query().Get("quantityToRemove"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidQuantity, "quantityToRemove must be an integer", h.logger)
		return
	}

	if err := h.service.Remove(r.Context(), id, quantity); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteResponse{Success: true}, h.logger)
}

// productID parses the {id} path parameter, writing a 400 when it is not an integer.
func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidID, "invalid product ID: "+raw, h.logger)
		return 0, false
	}
	return id, true
}

// parseForm reads a multipart or urlencoded body bounded by maxUploadBytes.
func (h *ProductHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	err := r.ParseMultipartForm(h.maxUploadBytes)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, r, http.StatusRequestEntityTooLarge, model.ErrCodeInvalidForm, "request body too large", h.logger)
		return false
	}

	writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidForm, "invalid form body", h.logger)
	return false
}

// formPhoto returns the uploaded "photo" part, or nil when none was sent.
func (h *ProductHandler) formPhoto(r *http.Request) (*model.PhotoUpload, func(), error) {
	if r.MultipartForm == nil {
		return nil, func() {}, nil
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}

	return &model.PhotoUpload{
		OriginalName: header.Filename,
		Content:      file,
	}, closeFile(file, h.logger), nil
}

func closeFile(file multipart.File, logger zerolog.Logger) func() {
	return func() {
		if err := file.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close uploaded photo")
		}
	}
}

// parseQuantity parses a stock quantity within the range of the INTEGER column.
func parseQuantity(raw string) (int, error) {
	quantity, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, err
	}
	return int(quantity), nil
}

// formValue reports whether key was present in the body.
func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// writeServiceError maps domain errors to HTTP responses.
func (h *ProductHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", h.logger)
		return
	}

	if domainErr.Code == model.ErrCodeStockOutOfRange {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidQuantity, domainErr.Message, h.logger)
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Code {
	case model.ErrCodeProductNotFound, model.ErrCodeInvalidQuantity:
		status = http.StatusNotFound
	case model.ErrCodePhotoRequired, model.ErrCodeInvalidForm, model.ErrCodeInvalidPrice, model.ErrCodeInvalidID:
		status = http.StatusBadRequest
	}

	writeError(w, r, status, domainErr.Code, domainErr.Message, h.logger)
}
