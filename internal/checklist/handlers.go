package checklist

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/wallowawildlife/ww-backend/internal/auth"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[checklist] encode response: %v", err)
	}
}

// flashAndRedirect stores a one-shot message on the browser's session and
// 303s to target.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, msg, target string) {
	if sess, err := auth.Manager().Current(w, r); err == nil {
		if err := auth.Manager().SetFlash(sess, msg); err != nil {
			log.Printf("[checklist] set flash: %v", err)
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	sess, err := auth.Manager().Current(w, r)
	if err != nil {
		return ""
	}
	flash, _ := auth.Manager().PopFlash(sess)
	return flash
}

func parseInput(r *http.Request) CreatureInput {
	in := CreatureInput{
		NameCommon: strings.TrimSpace(r.FormValue("name_common")),
		NameLatin:  strings.TrimSpace(r.FormValue("name_latin")),
		PhotoAttr:  strings.TrimSpace(r.FormValue("photo_attr")),
		PhotoURL:   strings.TrimSpace(r.FormValue("photo_url")),
		WikiURL:    strings.TrimSpace(r.FormValue("wiki_url")),
	}
	if typeID, err := strconv.ParseUint(r.FormValue("type_id"), 10, 32); err == nil {
		in.TypeID = uint(typeID)
	}
	for _, h := range strings.Split(r.FormValue("habitats"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			in.Habitats = append(in.Habitats, h)
		}
	}
	return in
}

func creatureID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "creatureID"), 10, 32)
	return uint(id), err
}

// listPayload is the data mapping handed to the rendering layer.
type listPayload struct {
	PageTitle string         `json:"page_title"`
	Types     []CreatureType `json:"types"`
	Creatures []Creature     `json:"creatures"`
	Flash     string         `json:"flash,omitempty"`
}

// ListAllHandler lists every creature in every category.
func ListAllHandler(w http.ResponseWriter, r *http.Request) {
	types, err := repo.ListTypes(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	creatures, err := repo.ListAll(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, listPayload{
		PageTitle: "All",
		Types:     types,
		Creatures: creatures,
		Flash:     popFlash(w, r),
	})
}

// ListByTypeHandler lists only the creatures of the requested category. An
// unknown slug redirects to the index rather than 404ing.
func ListByTypeHandler(w http.ResponseWriter, r *http.Request) {
	ct, err := repo.TypeBySlug(r.Context(), chi.URLParam(r, "slug"))
	if errors.Is(err, ErrUnknownType) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	types, err := repo.ListTypes(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	creatures, err := repo.ListByType(r.Context(), ct.ID)
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, listPayload{
		PageTitle: ct.Name,
		Types:     types,
		Creatures: creatures,
		Flash:     popFlash(w, r),
	})
}

// ShowHandler shows a single creature.
func ShowHandler(w http.ResponseWriter, r *http.Request) {
	id, err := creatureID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	creature, err := repo.Get(r.Context(), id)
	if errors.Is(err, ErrCreatureNotFound) {
		flashAndRedirect(w, r, "This entry does not exist.", "/wildlife")
		return
	}
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	types, err := repo.ListTypes(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"types":    types,
		"creature": creature,
	})
}

// AddFormHandler returns the data mapping for the add form.
func AddFormHandler(w http.ResponseWriter, r *http.Request) {
	types, err := repo.ListTypes(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"types": types,
		"flash": popFlash(w, r),
	})
}

// AddHandler creates a creature owned by the current identity.
func AddHandler(w http.ResponseWriter, r *http.Request) {
	identityID, err := auth.RequireAuthenticated(r.Context())
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	in := parseInput(r)
	if in.NameCommon == "" || in.TypeID == 0 {
		flashAndRedirect(w, r, "A common name and a creature type are required.", "/wildlife/add")
		return
	}
	if _, err := repo.TypeByID(r.Context(), in.TypeID); err != nil {
		flashAndRedirect(w, r, "Please choose a valid creature type.", "/wildlife/add")
		return
	}

	creature := Creature{
		NameCommon: in.NameCommon,
		NameLatin:  in.NameLatin,
		PhotoAttr:  in.PhotoAttr,
		PhotoURL:   in.PhotoURL,
		WikiURL:    in.WikiURL,
		Habitats:   in.Habitats,
		OwnerID:    identityID,
		TypeID:     in.TypeID,
	}
	if err := repo.Create(r.Context(), &creature); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	flashAndRedirect(w, r, "Successfully added "+creature.NameCommon, "/wildlife")
}

// ownedCreature loads the creature and enforces that the current identity
// owns it. On any failure it has already written the response.
func ownedCreature(w http.ResponseWriter, r *http.Request, action string) (*Creature, bool) {
	identityID, err := auth.RequireAuthenticated(r.Context())
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return nil, false
	}

	id, err := creatureID(r)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}

	creature, err := repo.Get(r.Context(), id)
	if errors.Is(err, ErrCreatureNotFound) {
		flashAndRedirect(w, r, "This entry does not exist.", "/wildlife")
		return nil, false
	}
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return nil, false
	}

	if err := auth.RequireOwner(creature.OwnerID, identityID); err != nil {
		flashAndRedirect(w, r, "You may only "+action+" an entry you own.", "/wildlife")
		return nil, false
	}
	return creature, true
}

// EditFormHandler returns the data mapping for the edit form.
func EditFormHandler(w http.ResponseWriter, r *http.Request) {
	creature, ok := ownedCreature(w, r, "edit")
	if !ok {
		return
	}
	types, err := repo.ListTypes(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"types":    types,
		"creature": creature,
	})
}

// EditHandler applies an edit. Empty form fields keep the stored values, and
// the owner can never change.
func EditHandler(w http.ResponseWriter, r *http.Request) {
	creature, ok := ownedCreature(w, r, "edit")
	if !ok {
		return
	}

	merged := creature.MergedWith(parseInput(r))
	if err := repo.Update(r.Context(), &merged); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	flashAndRedirect(w, r, "Successfully edited "+creature.NameCommon, "/wildlife")
}

// DeleteFormHandler returns the data mapping for the delete confirmation.
func DeleteFormHandler(w http.ResponseWriter, r *http.Request) {
	creature, ok := ownedCreature(w, r, "delete")
	if !ok {
		return
	}
	types, err := repo.ListTypes(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"types":    types,
		"creature": creature,
	})
}

// DeleteHandler removes the creature.
func DeleteHandler(w http.ResponseWriter, r *http.Request) {
	creature, ok := ownedCreature(w, r, "delete")
	if !ok {
		return
	}
	if err := repo.Delete(r.Context(), creature.ID); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	flashAndRedirect(w, r, "Successfully deleted "+creature.NameCommon, "/wildlife")
}
