package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tichu-tools/pairs-server/models"
	"github.com/tichu-tools/pairs-server/services"
)

type ScoreHandler struct {
	scoreService   services.ScoreService
	archiveService services.ArchiveService
}

func NewScoreHandler(scoreService services.ScoreService, archiveService services.ArchiveService) *ScoreHandler {
	return &ScoreHandler{
		scoreService:   scoreService,
		archiveService: archiveService,
	}
}

func handKeyFromURL(r *http.Request) (models.HandKey, error) {
	boardNo, err := getIDFromURL(r, "boardNo")
	if err != nil {
		return models.HandKey{}, err
	}
	nsPair, err := getIDFromURL(r, "nsPair")
	if err != nil {
		return models.HandKey{}, err
	}
	ewPair, err := getIDFromURL(r, "ewPair")
	if err != nil {
		return models.HandKey{}, err
	}
	return models.HandKey{BoardNo: boardNo, NSPair: nsPair, EWPair: ewPair}, nil
}

func (h *ScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitHandInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.scoreService.Submit(r.Context(), tournamentID, input, credentialFromRequest(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	key, err := handKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoreService.Delete(r.Context(), tournamentID, key, credentialFromRequest(r)); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ScoreHandler) GetHandResults(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	boardNo, err := getIDFromURL(r, "boardNo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	perspective := models.SeatSideNS
	switch strings.ToUpper(r.URL.Query().Get("perspective")) {
	case "", "NS":
	case "EW":
		perspective = models.SeatSideEW
	default:
		badRequestResponse(w, r, errors.New("perspective must be NS or EW"))
		return
	}

	scores, err := h.scoreService.GetHandResults(r.Context(), tournamentID, boardNo, perspective)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"board_no":    boardNo,
		"perspective": perspective,
		"results":     scores,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) GetChangeLog(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	key, err := handKeyFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.scoreService.GetChangeLog(r.Context(), tournamentID, key, credentialFromRequest(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"changelog": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) GetFinalResults(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	results, err := h.scoreService.GetFinalResults(r.Context(), tournamentID, credentialFromRequest(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) ArchiveFinalResults(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	url, err := h.archiveService.ArchiveFinalResults(r.Context(), tournamentID, credentialFromRequest(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"archive_url": url}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) DealBoards(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	deals, url, err := h.archiveService.DealBoards(r.Context(), tournamentID, credentialFromRequest(r))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"deals":       deals,
		"archive_url": url,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
