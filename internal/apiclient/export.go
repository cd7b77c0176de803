package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Export kinds served by the backend.
const (
	KindDOCX = "docx"
	KindPDF  = "pdf"
)

var exportRoutes = map[string]string{
	KindDOCX: routeExportDoc,
	KindPDF:  routeExportPDF,
}

var exportSuffix = map[string]string{
	KindDOCX: "/export/",
	KindPDF:  "/export_pdf/",
}

// SupportedExport reports whether kind has a backend export endpoint.
func SupportedExport(kind string) bool {
	_, ok := exportRoutes[kind]
	return ok
}

// Document is a binary export payload.
type Document struct {
	Data        []byte
	ContentType string
}

// ExportMachine downloads the rendered document of the given kind.
func (c *Client) ExportMachine(ctx context.Context, id int64, kind string) (*Document, error) {
	route, ok := exportRoutes[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported export kind %q", kind)
	}
	path := routeMachines + strconv.FormatInt(id, 10) + exportSuffix[kind]
	payload, header, err := c.read(ctx, call{method: http.MethodGet, route: route, path: path, accept: "*/*"})
	if err != nil {
		return nil, err
	}
	return &Document{Data: payload, ContentType: header.Get("Content-Type")}, nil
}
