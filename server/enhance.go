package server

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brightroom/brightroom/analyze"
	apperrors "github.com/brightroom/brightroom/errors"
	"github.com/brightroom/brightroom/utils"
)

type enhanceResponse struct {
	OriginalFilename string `json:"originalFilename"`
	EnhancedFilename string `json:"enhancedFilename"`
}

// enhanceImage receives a multipart upload, stores it, and runs the requested
// enhancement.  When the client supplies no factors the analyzer derives them
// from the upload itself.
func (s *Server) enhanceImage(c echo.Context) error {
	ctx := c.Request().Context()

	fh, err := c.FormFile("image")
	if err != nil {
		return s.jsonError(c, apperrors.Wrap(apperrors.CategoryInput, "enhance.upload",
			errors.New("No image file uploaded")))
	}

	src, err := fh.Open()
	if err != nil {
		return s.jsonError(c, apperrors.Wrap(apperrors.CategoryInput, "enhance.upload", err))
	}
	defer src.Close()

	limited := &utils.LimitedReader{R: src, Max: s.cfg.MaxUploadBytes}
	buf, err := utils.DrainReader(ctx, limited, 0)
	if err != nil {
		if errors.Is(err, utils.ErrLimitExceeded) {
			return s.jsonError(c, apperrors.Wrap(apperrors.CategoryInput, "enhance.upload",
				apperrors.ErrOversizeUpload))
		}
		return s.jsonError(c, apperrors.Wrap(apperrors.CategoryInput, "enhance.upload", err))
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	if len(raw) == 0 {
		return s.jsonError(c, apperrors.Wrap(apperrors.CategoryInput, "enhance.upload",
			apperrors.ErrEmptyInput))
	}

	key := uploadKey(fh.Filename)
	if err := s.assets.Put(ctx, key, bytes.NewReader(raw)); err != nil {
		return s.jsonError(c, err)
	}

	params := formParams(c)
	if params == (analyze.Params{}) {
		params = analyze.AnalyzeBytes(raw)
	}

	result, err := s.enhancer.Enhance(ctx, key, c.FormValue("type"), params)
	if err != nil {
		return s.jsonError(c, err)
	}

	return c.JSON(http.StatusOK, enhanceResponse{
		OriginalFilename: result.OriginalKey,
		EnhancedFilename: result.EnhancedKey,
	})
}

// uploadKey builds a storage key unique per upload while keeping the client's
// filename visible: <unix-millis>-<random>-<basename>.
func uploadKey(original string) string {
	name := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), rand.Int64N(1_000_000_000), name)
}

// formParams reads the optional per-request factors.  Absent or malformed
// fields stay zero; an all-zero set means the client wants auto-analysis.
func formParams(c echo.Context) analyze.Params {
	get := func(field string) float64 {
		v, err := strconv.ParseFloat(c.FormValue(field), 64)
		if err != nil {
			return 0
		}
		return v
	}
	return analyze.Params{
		Brightness: get("brightness"),
		Saturation: get("saturation"),
		Contrast:   get("contrast"),
		Upscale:    get("upscale"),
	}
}
