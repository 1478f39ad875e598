package asset

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts asset operations under the provided router group.
// The query/listing/deletion and access-control routes are declared but not
// implemented; they answer 501 so callers never mistake them for a success.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/assets/ingest", handler.ingest)
	group.POST("/assets/:id/metadata", handler.upsertMetadata)

	group.GET("/assets", handler.notImplemented)
	group.GET("/assets/:id", handler.notImplemented)
	group.DELETE("/assets/:id", handler.notImplemented)
	group.POST("/assets/:id/access", handler.notImplemented)
	group.DELETE("/assets/:id/access/:userId", handler.notImplemented)
}

type httpHandler struct {
	service *Service
}

// metadataRequest is the JSON body of the metadata upsert endpoint. The
// ingest endpoint accepts the same five names as optional form fields.
type metadataRequest struct {
	AssetType         string `json:"asset_type"`
	AssetClass        string `json:"asset_class"`
	AssetLocationName string `json:"asset_location_name"`
	AssetCamera       string `json:"asset_camera"`
	AssetDateLabel    string `json:"asset_date_label"`
}

func (r metadataRequest) metadata() Metadata {
	return Metadata{
		AssetType:         r.AssetType,
		AssetClass:        r.AssetClass,
		AssetLocationName: r.AssetLocationName,
		AssetCamera:       r.AssetCamera,
		AssetDateLabel:    r.AssetDateLabel,
	}
}

func (h *httpHandler) ingest(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, NewValidationError("file field is required"))
		return
	}

	meta := Metadata{
		AssetType:         c.PostForm("asset_type"),
		AssetClass:        c.PostForm("asset_class"),
		AssetLocationName: c.PostForm("asset_location_name"),
		AssetCamera:       c.PostForm("asset_camera"),
		AssetDateLabel:    c.PostForm("asset_date_label"),
	}
	var metaPtr *Metadata
	if !meta.Empty() {
		metaPtr = &meta
	}

	stored, err := h.service.Ingest(c.Request.Context(), fileHeader, metaPtr)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": stored})
}

func (h *httpHandler) upsertMetadata(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, NewValidationError("invalid asset id"))
		return
	}

	var req metadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, NewValidationError("invalid request body"))
		return
	}

	stored, err := h.service.UpsertMetadata(c.Request.Context(), assetID, req.metadata())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": stored})
}

func (h *httpHandler) notImplemented(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{"success": false, "message": "not implemented"})
}

// writeError maps a workflow error onto the response envelope. Only the
// error's own message reaches the client; causes stay in the logs.
func writeError(c *gin.Context, err error) {
	e := From(err)
	body := gin.H{"success": false, "error": e.Message, "message": e.Message}
	if len(e.Missing) > 0 {
		body["missing_fields"] = e.Missing
	}
	c.JSON(e.Status, body)
}
