package endpoints

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/ShipCreekGroup/email-parser/internal/api"
	"github.com/ShipCreekGroup/email-parser/internal/svcctx"
)

// ExportEndpoint handles GET /api/sessions/{session_id}/export/{format}.
// Only terminal collections are ever registered in the session store, so
// export is unreachable for failed or in-flight extractions.
type ExportEndpoint struct{}

func (e *ExportEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/sessions/{session_id}/export/{format}", e.handler
}

func (e *ExportEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	format := r.PathValue("format")

	store := svcctx.SessionsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "server not initialized")
		return
	}

	result, ok := store.Get(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown session: %s", sessionID))
		return
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case "json":
		data, err = result.Emails.JSON()
		contentType = "application/json"
	case "csv":
		data, err = result.Emails.CSV()
		contentType = "text/csv; charset=utf-8"
	case "xlsx":
		data, err = result.Emails.XLSX()
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown export format: %s", format))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("export failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=emails.%s", format))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (e *ExportEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "export <session_id> <json|csv|xlsx>",
		Short: "Download an export for a finished parse session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := fmt.Sprintf("/api/sessions/%s/export/%s", args[0], args[1])
			data, _, err := client.Download(cmd.Context(), path)
			if err != nil {
				return err
			}
			if outFile != "" {
				return os.WriteFile(outFile, data, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "Write export to file instead of stdout")
	return cmd
}
