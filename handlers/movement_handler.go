package handlers

import (
	"net/http"

	"github.com/tichu-tools/pairs-server/middleware"
	"github.com/tichu-tools/pairs-server/services"
)

type MovementHandler struct {
	movementService services.MovementService
}

func NewMovementHandler(movementService services.MovementService) *MovementHandler {
	return &MovementHandler{
		movementService: movementService,
	}
}

// credentialFromRequest builds a write/read credential from either the
// authenticated director session or a ?code= pair code.
func credentialFromRequest(r *http.Request) services.Credential {
	return services.Credential{
		UserID:   middleware.UserIDOrZero(r.Context()),
		PairCode: r.URL.Query().Get("code"),
	}
}

// GetMovement returns the full table schedule. It contains only pair numbers
// and board groups, so it needs no credential.
func (h *MovementHandler) GetMovement(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	mv, err := h.movementService.GetMovement(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	type tableView struct {
		RoundNo int   `json:"round_no"`
		TableNo int   `json:"table_no"`
		NSPair  int   `json:"ns_pair"`
		EWPair  int   `json:"ew_pair"`
		Boards  []int `json:"boards"`
		Relay   bool  `json:"relay,omitempty"`
	}
	type roundView struct {
		RoundNo int         `json:"round_no"`
		Tables  []tableView `json:"tables"`
		SitOuts []int       `json:"sit_outs,omitempty"`
	}

	rounds := make([]roundView, mv.NoRounds)
	for i := range rounds {
		rounds[i] = roundView{
			RoundNo: i + 1,
			SitOuts: mv.SitOuts(i + 1),
		}
	}
	for _, t := range mv.Tables() {
		rv := &rounds[t.RoundNo-1]
		rv.Tables = append(rv.Tables, tableView{
			RoundNo: t.RoundNo,
			TableNo: t.TableNo,
			NSPair:  t.NSPair,
			EWPair:  t.EWPair,
			Boards:  t.Boards,
			Relay:   t.Relay,
		})
	}

	response := jsonResponse{
		"no_pairs":         mv.NoPairs,
		"no_boards":        mv.NoBoards,
		"no_rounds":        mv.NoRounds,
		"boards_per_round": mv.BoardsPerRound,
		"rounds":           rounds,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMovementForPair returns one pair's personal schedule with any results
// already scored for its hands.
func (h *MovementHandler) GetMovementForPair(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pairNo, err := getIDFromURL(r, "pairNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	pm, err := h.movementService.GetMovementForPair(r.Context(), tournamentID, pairNo, credentialFromRequest(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"movement": pm}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MovementHandler) HandStatus(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	status, err := h.movementService.HandStatus(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
