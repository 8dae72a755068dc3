package bot

import (
	"fmt"
	"strings"

	"github.com/dobroplatform/dobro-max-bot/internal/db"
)

// Reply texts. Kept in one place so the flow handlers read as transitions.

func welcomeText(firstName string) string {
	if firstName == "" {
		firstName = "друг"
	}
	return fmt.Sprintf(
		"Привет, %s! 👋\n\n"+
			"Это «Добро в MAX» — платформа волонтёрских заявок.\n\n"+
			"Здесь можно найти, кому нужна помощь, или создать свою заявку.\n"+
			"Выберите действие в меню ниже.",
		firstName,
	)
}

func helpText() string {
	return "Команды бота:\n\n" +
		"/catalog — каталог заявок\n" +
		"/create — создать заявку\n" +
		"/profile — мой профиль\n" +
		"/help — эта справка\n\n" +
		"В каталоге нажмите «Откликнуться», чтобы предложить помощь."
}

func createRequestStartText() string {
	return "Создаём новую заявку. 📝\n\nВведите название заявки:"
}

func chooseCategoryText() string    { return "Выберите категорию:" }
func chooseTypeText() string        { return "Выберите тип заявки:" }
func chooseRegionText() string      { return "Выберите регион:" }
func askDescriptionText() string    { return "Опишите подробно, какая помощь требуется:" }
func askDateText() string           { return "Укажите дату (формат: ДД.ММ.ГГГГ):" }
func cancelledText() string         { return "Действие отменено." }
func noRequestsText() string        { return "Пока нет активных заявок. Создайте первую!" }
func requestNotFoundText() string   { return "Заявка не найдена." }
func actionFailedText() string      { return "Не получилось выполнить действие. Попробуйте ещё раз." }

func requestPreviewText(d Draft) string {
	var b strings.Builder
	b.WriteString("Проверьте заявку:\n\n")
	fmt.Fprintf(&b, "📌 %s\n", d.Title)
	fmt.Fprintf(&b, "Категория: %s\n", d.Category)
	fmt.Fprintf(&b, "Тип: %s\n", d.Type)
	fmt.Fprintf(&b, "Регион: %s\n", d.Region)
	fmt.Fprintf(&b, "Дата: %s\n\n", d.Date)
	b.WriteString(d.Description)
	return b.String()
}

func requestCreatedText(req *db.Request) string {
	if req.Verified {
		return fmt.Sprintf("Заявка «%s» создана и опубликована в каталоге! ✅", req.Title)
	}
	return fmt.Sprintf(
		"Заявка «%s» создана и отправлена на модерацию.\n"+
			"После проверки она появится в каталоге.", req.Title)
}

func requestCardText(req *db.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 %s\n", req.Title)
	fmt.Fprintf(&b, "%s · %s · %s\n", req.Category, req.Type, req.Region)
	fmt.Fprintf(&b, "📅 %s\n\n", req.Date)
	b.WriteString(shorten(req.Description, 120))
	return b.String()
}

func requestDetailsText(req *db.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 %s\n\n", req.Title)
	fmt.Fprintf(&b, "Категория: %s\n", req.Category)
	fmt.Fprintf(&b, "Тип: %s\n", req.Type)
	fmt.Fprintf(&b, "Регион: %s\n", req.Region)
	fmt.Fprintf(&b, "Дата: %s\n", req.Date)
	if req.Location != nil && *req.Location != "" {
		fmt.Fprintf(&b, "Место: %s\n", *req.Location)
	}
	if req.Requirements != nil && *req.Requirements != "" {
		fmt.Fprintf(&b, "Требования: %s\n", *req.Requirements)
	}
	fmt.Fprintf(&b, "Вознаграждение: %s\n", req.Reward)
	if req.Verified {
		b.WriteString("✅ Проверенная заявка\n")
	}
	b.WriteString("\n")
	b.WriteString(req.FullDescription)
	return b.String()
}

func responseCreatedText(req *db.Request) string {
	return fmt.Sprintf(
		"Вы откликнулись на заявку «%s»! ✋\n"+
			"Организатор свяжется с вами.", req.Title)
}

func profileText(requests []db.Request, responses []db.Response) string {
	var b strings.Builder
	b.WriteString("👤 Мой профиль\n\n")
	fmt.Fprintf(&b, "Мои заявки: %d\n", len(requests))
	for i, req := range requests {
		if i >= 5 {
			fmt.Fprintf(&b, "  … и ещё %d\n", len(requests)-5)
			break
		}
		status := "на модерации"
		if req.Verified {
			status = "опубликована"
		}
		fmt.Fprintf(&b, "  • %s (%s)\n", req.Title, status)
	}
	fmt.Fprintf(&b, "\nМои отклики: %d\n", len(responses))
	return b.String()
}

func pageText(page, total int) string {
	return fmt.Sprintf("Страница %d из %d", page, total)
}

func shorten(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
