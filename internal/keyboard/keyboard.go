// Package keyboard builds the button layouts the bot attaches to replies.
//
// Every callback payload emitted here is a colon-delimited action string
// that the conversation engine dispatches on; the two sides must stay in
// sync (see the engine's dispatch table).
package keyboard

import "fmt"

// Button is one key: a label plus the callback payload it carries.
// An empty payload means a quick-reply button that sends its label as text.
type Button struct {
	Text    string
	Payload string
}

// Keyboard is a matrix of button rows
type Keyboard [][]Button

// MainMenu is the persistent quick-reply menu
func MainMenu() Keyboard {
	return Keyboard{
		{
			{Text: "📋 Каталог заявок"},
			{Text: "➕ Создать заявку"},
		},
		{
			{Text: "👤 Мой профиль"},
			{Text: "❓ Помощь"},
		},
	}
}

// RequestActions is attached to each catalog card
func RequestActions(requestID int64) Keyboard {
	return Keyboard{
		{
			{Text: "👁️ Подробнее", Payload: fmt.Sprintf("view_request:%d", requestID)},
			{Text: "✋ Откликнуться", Payload: fmt.Sprintf("respond_request:%d", requestID)},
		},
	}
}

// RequestDetails is attached to the full request view
func RequestDetails(requestID int64) Keyboard {
	return Keyboard{
		{
			{Text: "✋ Откликнуться", Payload: fmt.Sprintf("respond_request:%d", requestID)},
		},
		{
			{Text: "🔙 Назад к каталогу", Payload: "page:1"},
		},
	}
}

// Categories is the category picker in the create flow
func Categories() Keyboard {
	return Keyboard{
		{
			{Text: "Инклюзия", Payload: "category:Инклюзия"},
			{Text: "Экология", Payload: "category:Экология"},
		},
		{
			{Text: "Здоровье", Payload: "category:Здоровье"},
			{Text: "Культура", Payload: "category:Культура"},
		},
		{
			{Text: "Образование", Payload: "category:Образование"},
			{Text: "Социальная помощь", Payload: "category:Социальная помощь"},
		},
		{
			{Text: "Спорт", Payload: "category:Спорт"},
			{Text: "Животные", Payload: "category:Животные"},
		},
		{
			{Text: "❌ Отмена", Payload: "cancel"},
		},
	}
}

// RequestTypes is the one-time/long-term picker
func RequestTypes() Keyboard {
	return Keyboard{
		{
			{Text: "Разовая", Payload: "type:разовая"},
			{Text: "Долгосрочная", Payload: "type:долгосрочная"},
		},
		{
			{Text: "❌ Отмена", Payload: "cancel"},
		},
	}
}

// Regions is the region picker
func Regions() Keyboard {
	return Keyboard{
		{
			{Text: "Москва", Payload: "region:Москва"},
			{Text: "СПб", Payload: "region:Санкт-Петербург"},
		},
		{
			{Text: "Казань", Payload: "region:Казань"},
			{Text: "Новосибирск", Payload: "region:Новосибирск"},
		},
		{
			{Text: "Екатеринбург", Payload: "region:Екатеринбург"},
			{Text: "Нижний Новгород", Payload: "region:Нижний Новгород"},
		},
		{
			{Text: "Красноярск", Payload: "region:Красноярск"},
			{Text: "Челябинск", Payload: "region:Челябинск"},
		},
		{
			{Text: "❌ Отмена", Payload: "cancel"},
		},
	}
}

// Filters is the catalog filter bar
func Filters() Keyboard {
	return Keyboard{
		{
			{Text: "🔍 По категории", Payload: "filter:category"},
			{Text: "📍 По региону", Payload: "filter:region"},
		},
		{
			{Text: "📅 По типу", Payload: "filter:type"},
			{Text: "🔄 Сбросить", Payload: "filter:reset"},
		},
	}
}

// CatalogNavigation builds the pager row; edges omit the unusable arrow
func CatalogNavigation(page, total int) Keyboard {
	var row []Button
	if page > 1 {
		row = append(row, Button{Text: "◀️ Назад", Payload: fmt.Sprintf("page:%d", page-1)})
	}
	if page < total {
		row = append(row, Button{Text: "Вперёд ▶️", Payload: fmt.Sprintf("page:%d", page+1)})
	}
	return Keyboard{row}
}

// ConfirmRequest is the final confirm/cancel pair in the create flow
func ConfirmRequest() Keyboard {
	return Keyboard{
		{
			{Text: "✅ Подтвердить", Payload: "confirm:yes"},
			{Text: "❌ Отмена", Payload: "cancel"},
		},
	}
}
