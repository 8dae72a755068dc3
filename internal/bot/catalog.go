package bot

import (
	"context"
	"errors"
	"log"

	"github.com/dobroplatform/dobro-max-bot/internal/db"
	"github.com/dobroplatform/dobro-max-bot/internal/keyboard"
)

// Catalog browsing is stateless: every handler here is a one-shot lookup
// or mutation against the store, independent of any create-flow session.

func (e *Engine) showCatalog(ctx context.Context, chatID int64, page int) error {
	if page < 1 {
		page = 1
	}

	requests, err := e.store.GetRequests(ctx, db.RequestFilter{
		Limit:  catalogPageSize,
		Offset: (page - 1) * catalogPageSize,
	})
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		return e.messenger.SendText(ctx, chatID, noRequestsText())
	}

	for i := range requests {
		req := &requests[i]
		if err := e.messenger.SendKeyboard(ctx, chatID,
			requestCardText(req), keyboard.RequestActions(req.ID)); err != nil {
			return err
		}
	}

	total, err := e.store.CountRequests(ctx)
	if err != nil {
		return err
	}
	totalPages := (total + catalogPageSize - 1) / catalogPageSize
	if totalPages > 1 {
		if err := e.messenger.SendKeyboard(ctx, chatID,
			pageText(page, totalPages), keyboard.CatalogNavigation(page, totalPages)); err != nil {
			return err
		}
	}

	return e.messenger.SendKeyboard(ctx, chatID, "Фильтры:", keyboard.Filters())
}

func (e *Engine) showRequest(ctx context.Context, chatID int64, requestID int64) error {
	req, err := e.store.GetRequest(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return e.messenger.SendText(ctx, chatID, requestNotFoundText())
	}
	if err != nil {
		return err
	}

	return e.messenger.SendKeyboard(ctx, chatID,
		requestDetailsText(req), keyboard.RequestDetails(req.ID))
}

func (e *Engine) respondToRequest(ctx context.Context, chatID int64, userID string, requestID int64) error {
	req, err := e.store.GetRequest(ctx, requestID)
	if errors.Is(err, db.ErrNotFound) {
		return e.messenger.SendText(ctx, chatID, requestNotFoundText())
	}
	if err != nil {
		return err
	}

	if err := e.store.CreateResponse(ctx, &db.Response{
		RequestID: requestID,
		UserID:    userID,
	}); err != nil {
		if sendErr := e.messenger.SendText(ctx, chatID, actionFailedText()); sendErr != nil {
			log.Printf("bot: failure notice to chat=%d failed: %v", chatID, sendErr)
		}
		return err
	}

	return e.messenger.SendText(ctx, chatID, responseCreatedText(req))
}

func (e *Engine) showProfile(ctx context.Context, chatID int64, userID string) error {
	requests, err := e.store.GetUserRequests(ctx, userID)
	if err != nil {
		return err
	}
	responses, err := e.store.GetUserResponses(ctx, userID)
	if err != nil {
		return err
	}

	return e.messenger.SendText(ctx, chatID, profileText(requests, responses))
}

// applyFilter re-renders the first catalog page narrowed by one dimension
func (e *Engine) applyFilter(ctx context.Context, chatID int64, params []string) error {
	if len(params) == 0 {
		return nil
	}

	var filter db.RequestFilter
	filter.Limit = catalogPageSize

	kind := params[0]
	value := ""
	if len(params) > 1 {
		value = params[1]
	}

	switch kind {
	case "category":
		if value == "" {
			return e.messenger.SendKeyboard(ctx, chatID, chooseCategoryText(), filterPicker("category", keyboard.Categories()))
		}
		filter.Category = value
	case "region":
		if value == "" {
			return e.messenger.SendKeyboard(ctx, chatID, chooseRegionText(), filterPicker("region", keyboard.Regions()))
		}
		filter.Region = value
	case "type":
		if value == "" {
			return e.messenger.SendKeyboard(ctx, chatID, chooseTypeText(), filterPicker("type", keyboard.RequestTypes()))
		}
		filter.Type = value
	case "reset":
		return e.showCatalog(ctx, chatID, 1)
	default:
		log.Printf("bot: unknown filter kind %q", kind)
		return nil
	}

	requests, err := e.store.GetRequests(ctx, filter)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return e.messenger.SendText(ctx, chatID, noRequestsText())
	}
	for i := range requests {
		req := &requests[i]
		if err := e.messenger.SendKeyboard(ctx, chatID,
			requestCardText(req), keyboard.RequestActions(req.ID)); err != nil {
			return err
		}
	}
	return nil
}

// filterPicker rewrites a create-flow picker so its buttons carry
// filter payloads instead of step payloads. The cancel row is dropped.
func filterPicker(kind string, kb keyboard.Keyboard) keyboard.Keyboard {
	out := make(keyboard.Keyboard, 0, len(kb))
	for _, row := range kb {
		var newRow []keyboard.Button
		for _, b := range row {
			if b.Payload == "cancel" || b.Payload == "" {
				continue
			}
			_, params := splitFilterPayload(b.Payload)
			if params == "" {
				continue
			}
			newRow = append(newRow, keyboard.Button{
				Text:    b.Text,
				Payload: "filter:" + kind + ":" + params,
			})
		}
		if len(newRow) > 0 {
			out = append(out, newRow)
		}
	}
	return out
}

func splitFilterPayload(payload string) (action, rest string) {
	for i := 0; i < len(payload); i++ {
		if payload[i] == ':' {
			return payload[:i], payload[i+1:]
		}
	}
	return payload, ""
}
