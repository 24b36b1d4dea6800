package handlers

import (
	"net/http"
	"strconv"

	"github.com/thermoters/jobd/internal/history"
	"gorm.io/gorm"
)

// HistoryHandler lists the caller's jobs sorted and paginated for display.
func HistoryHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := callerAccount(w, r, database)
		if !ok {
			return
		}

		q := history.Query{
			SortField:     history.SortField(r.URL.Query().Get("sortField")),
			SortDirection: r.URL.Query().Get("sortDirection"),
		}
		var err error
		if q.PageIndex, err = queryInt(r, "pageIndex", 0); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid pageIndex")
			return
		}
		if q.PageSize, err = queryInt(r, "pageSize", 0); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid pageSize")
			return
		}
		if err := q.Normalize(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		page, err := history.List(database, account.AccountKey, q)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "Job store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
