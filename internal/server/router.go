// Package server exposes the household sync API over HTTP. Devices enroll
// with the household join code, then push and pull each synced collection
// under a bearer token.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kindredhq/hearth/internal/auth"
	"github.com/kindredhq/hearth/internal/household"
	"github.com/kindredhq/hearth/internal/wire"
)

const (
	accountIDContextKey = "hearth_account_id"
	deviceIDContextKey  = "hearth_device_id"
)

var (
	errMissingJoinVerifier  = errors.New("join code verifier dependency required")
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingService       = errors.New("household service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// DeviceTokenManager issues and validates device bearer tokens.
type DeviceTokenManager interface {
	IssueDeviceToken(ctx context.Context, identity auth.DeviceIdentity) (string, int64, error)
	ValidateToken(token string) (auth.DeviceIdentity, error)
}

// JoinCodeVerifier checks the household join code presented at enrollment.
type JoinCodeVerifier interface {
	Verify(presented string) error
}

type Dependencies struct {
	JoinVerifier     JoinCodeVerifier
	TokenManager     DeviceTokenManager
	HouseholdService *household.Service
	Logger           *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.JoinVerifier == nil {
		return nil, errMissingJoinVerifier
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.HouseholdService == nil {
		return nil, errMissingService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		joinVerifier: deps.JoinVerifier,
		tokens:       deps.TokenManager,
		service:      deps.HouseholdService,
		logger:       logger,
	}

	router.POST("/auth/device", handler.handleDeviceAuth)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/sync/:entity/push", handler.handlePush)
	protected.GET("/sync/:entity/pull", handler.handlePull)
	protected.GET("/changes", handler.handleListChanges)

	return router, nil
}

type httpHandler struct {
	joinVerifier JoinCodeVerifier
	tokens       DeviceTokenManager
	service      *household.Service
	logger       *zap.Logger
}

type authRequestPayload struct {
	AccountID string `json:"account_id"`
	DeviceID  string `json:"device_id"`
	JoinCode  string `json:"join_code"`
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleDeviceAuth(c *gin.Context) {
	var request authRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil ||
		strings.TrimSpace(request.AccountID) == "" ||
		strings.TrimSpace(request.DeviceID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.joinVerifier.Verify(request.JoinCode); err != nil {
		h.logger.Warn("join code verification failed",
			zap.String("device_id", request.DeviceID), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	identity := auth.DeviceIdentity{
		AccountID: strings.TrimSpace(request.AccountID),
		DeviceID:  strings.TrimSpace(request.DeviceID),
	}
	token, expiresIn, err := h.tokens.IssueDeviceToken(c.Request.Context(), identity)
	if err != nil {
		h.logger.Error("failed to issue device token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

type pushRequestPayload struct {
	Operations []pushOperationPayload `json:"operations"`
}

type pushOperationPayload struct {
	RecordID          string          `json:"record_id"`
	Operation         string          `json:"operation"`
	ClientTimeSeconds int64           `json:"client_time_s"`
	CreatedAtSeconds  int64           `json:"created_at_s"`
	UpdatedAtSeconds  int64           `json:"updated_at_s"`
	Payload           json.RawMessage `json:"payload"`
}

type pushResponsePayload struct {
	Results []pushResultPayload `json:"results"`
}

type pushResultPayload struct {
	RecordID         string          `json:"record_id"`
	Accepted         bool            `json:"accepted"`
	Version          int64           `json:"version"`
	UpdatedAtSeconds int64           `json:"updated_at_s"`
	IsDeleted        bool            `json:"is_deleted"`
	Payload          json.RawMessage `json:"payload"`
}

func (h *httpHandler) handlePush(c *gin.Context) {
	accountID, deviceID, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	entityType, err := wire.ParseEntityType(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_entity_type"})
		return
	}

	var request pushRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Operations) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	changes := make([]household.ChangeRequest, 0, len(request.Operations))
	for _, op := range request.Operations {
		opType, err := household.ParseOperationType(op.Operation)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_operation"})
			return
		}
		recordID, err := household.NewRecordID(op.RecordID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_record_id"})
			return
		}
		payloadJSON := ""
		if len(op.Payload) > 0 {
			payloadJSON = string(op.Payload)
		}
		changes = append(changes, household.ChangeRequest{
			EntityType:        string(entityType),
			RecordID:          recordID,
			Operation:         opType,
			ClientDevice:      deviceID,
			ClientTimeSeconds: op.ClientTimeSeconds,
			CreatedAtSeconds:  op.CreatedAtSeconds,
			UpdatedAtSeconds:  op.UpdatedAtSeconds,
			PayloadJSON:       payloadJSON,
		})
	}

	result, err := h.service.ApplyChanges(c.Request.Context(), accountID, changes)
	if err != nil {
		h.logger.Error("failed to apply pushed changes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync_failed"})
		return
	}

	response := pushResponsePayload{Results: make([]pushResultPayload, 0, len(result.ChangeOutcomes))}
	for _, outcome := range result.ChangeOutcomes {
		record := outcome.Outcome.UpdatedRecord
		payload := json.RawMessage(nil)
		if record.PayloadJSON != "" {
			payload = json.RawMessage(record.PayloadJSON)
		}
		response.Results = append(response.Results, pushResultPayload{
			RecordID:         record.RecordID,
			Accepted:         outcome.Outcome.Accepted,
			Version:          record.Version,
			UpdatedAtSeconds: record.UpdatedAtSeconds,
			IsDeleted:        record.IsDeleted,
			Payload:          payload,
		})
	}
	c.JSON(http.StatusOK, response)
}

type pullResponsePayload struct {
	Records []pullRecordPayload `json:"records"`
}

type pullRecordPayload struct {
	RecordID         string          `json:"record_id"`
	UpdatedAtSeconds int64           `json:"updated_at_s"`
	IsDeleted        bool            `json:"is_deleted"`
	Payload          json.RawMessage `json:"payload"`
}

func (h *httpHandler) handlePull(c *gin.Context) {
	accountID, _, ok := h.requestIdentity(c)
	if !ok {
		return
	}
	entityType, err := wire.ParseEntityType(c.Param("entity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_entity_type"})
		return
	}

	records, err := h.service.Snapshot(c.Request.Context(), accountID, entityType)
	if err != nil {
		h.logger.Error("failed to load snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "pull_failed"})
		return
	}

	response := pullResponsePayload{Records: make([]pullRecordPayload, 0, len(records))}
	for _, record := range records {
		payload := json.RawMessage(nil)
		if record.PayloadJSON != "" {
			payload = json.RawMessage(record.PayloadJSON)
		}
		response.Records = append(response.Records, pullRecordPayload{
			RecordID:         record.RecordID,
			UpdatedAtSeconds: record.UpdatedAtSeconds,
			IsDeleted:        record.IsDeleted,
			Payload:          payload,
		})
	}
	c.JSON(http.StatusOK, response)
}

type changeListPayload struct {
	Changes []changeEntryPayload `json:"changes"`
}

type changeEntryPayload struct {
	ChangeID         string `json:"change_id"`
	EntityType       string `json:"entity_type"`
	RecordID         string `json:"record_id"`
	AppliedAtSeconds int64  `json:"applied_at_s"`
	ClientDevice     string `json:"client_device"`
	Operation        string `json:"operation"`
}

func (h *httpHandler) handleListChanges(c *gin.Context) {
	accountID, _, ok := h.requestIdentity(c)
	if !ok {
		return
	}

	since := int64(0)
	if raw := c.Query("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_since"})
			return
		}
		since = parsed
	}

	changes, err := h.service.ListChanges(c.Request.Context(), accountID, since)
	if err != nil {
		h.logger.Error("failed to list changes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "changes_failed"})
		return
	}

	response := changeListPayload{Changes: make([]changeEntryPayload, 0, len(changes))}
	for _, change := range changes {
		response.Changes = append(response.Changes, changeEntryPayload{
			ChangeID:         change.ChangeID,
			EntityType:       change.EntityType,
			RecordID:         change.RecordID,
			AppliedAtSeconds: change.AppliedAtSeconds,
			ClientDevice:     change.ClientDevice,
			Operation:        string(change.Operation),
		})
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) requestIdentity(c *gin.Context) (household.AccountID, string, bool) {
	accountID := c.GetString(accountIDContextKey)
	deviceID := c.GetString(deviceIDContextKey)
	if accountID == "" || deviceID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", "", false
	}
	validated, err := household.NewAccountID(accountID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", "", false
	}
	return validated, deviceID, true
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	identity, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(accountIDContextKey, identity.AccountID)
	c.Set(deviceIDContextKey, identity.DeviceID)
	c.Next()
}
