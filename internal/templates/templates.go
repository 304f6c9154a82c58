// Package templates holds the bot's static texts: command replies, the
// motivational quote list and the reminder messages.
package templates

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/commitly/commitlybot/internal/messenger"
)

// Welcome is the /start reply.
func Welcome() messenger.Message {
	return messenger.Message{Text: `🤖 Добро пожаловать в бот-помощник команды Commitly!

Доступные команды:
/about - информация о компании
/contacts - контакты команды
/news - свежая новость об обучении и разработке
/region - регион новостей (ru, us, eu)
/rate - оценить бота
/help - справка по командам

Бот будет напоминать о важных событиях и мотивировать вас каждый день! 🚀`}
}

// About is the /about reply.
func About() messenger.Message {
	return messenger.Message{
		Text: `<b>Commitly</b> — это B2B-платформа для обучения программистов через геймификацию.

• Программисты как обычно пишут код и проходят тесты: юнит, функциональное тестирование, нагрузочное, тесты по безопасности и т.д.

• Платформа автоматически генерирует для них персонализированные обучающие игры.

• Обучение фокусируется на изучении новых технологий через практику, адаптированные под уровень и цели пользователя с помощью AI.

• Система включает постоянный конкурентный режим с рейтингами, наградами и лидерами, что мотивирует сотрудников учиться активнее.`,
		ParseMode: models.ParseModeHTML,
		Plain: `Commitly — это B2B-платформа для обучения программистов через геймификацию.

Программисты как обычно пишут код и проходят тесты: юнит, функциональное тестирование, нагрузочное, тесты по безопасности и т.д.

Платформа автоматически генерирует для них персонализированные обучающие игры.

Обучение фокусируется на изучении новых технологий через практику, адаптированные под уровень и цели пользователя с помощью AI.

Система включает постоянный конкурентный режим с рейтингами, наградами и лидерами, что мотивирует сотрудников учиться активнее.`,
	}
}

// Contacts is the /contacts reply.
func Contacts() messenger.Message {
	return messenger.Message{
		Text: `📞 Контакты команды:

👨‍💻 Алексей: @alxxcold
👨‍💻 Даниил: @D_Korr

Свяжитесь с нами для любых вопросов! 💬`,
		Plain: "Контакты команды:\nАлексей: @alxxcold\nДаниил: @D_Korr",
	}
}

// Rate is the /rate reply.
func Rate() messenger.Message {
	return messenger.Message{
		Text: `⭐ *Оцените бота Commitly!*

Напишите одному из нас, что понравилось и что стоит улучшить:
👨‍💻 Алексей: @alxxcold
👨‍💻 Даниил: @D\_Korr

Каждый отзыв помогает сделать напоминания и новости полезнее. Спасибо! 🙌`,
		ParseMode: models.ParseModeMarkdownV1,
	}
}

// Help is the /help reply. Debug commands are listed only when enabled.
func Help(debugCommands bool) messenger.Message {
	var b strings.Builder
	b.WriteString(`🆘 Справка по командам:

/start - запуск бота
/about - информация о компании Commitly
/contacts - контакты команды
/news [тема] - свежая новость (по умолчанию об обучении и разработке)
/region ru|us|eu - регион новостей
/rate - оценить бота
/help - эта справка
`)
	if debugCommands {
		b.WriteString("/test - тест отправки сообщений\n/test_reminders - ручной тест напоминаний\n")
	}
	b.WriteString(`
🤖 Автоматические функции:
• Напоминания о встречах (вторник, четверг)
• Ежедневные мотивирующие цитаты`)
	return messenger.Message{Text: b.String()}
}

// SelfTest is the first /test reply.
func SelfTest(now time.Time) messenger.Message {
	return messenger.Message{Text: fmt.Sprintf(`🧪 Тест отправки сообщений

Если вы видите это сообщение, значит:
✅ Бот работает правильно
✅ Сообщения доставляются
✅ Напоминания будут приходить вовремя

Время теста: %s`, now.Format("15:04:05 02.01.2006"))}
}

// SelfTestQuote is the second /test reply.
func SelfTestQuote(quote string) messenger.Message {
	return messenger.Message{Text: "💫 Тест мотивации:\n\n" + quote}
}

// Motivation is the daily quote broadcast.
func Motivation(quote string) messenger.Message {
	return messenger.Message{Text: "💫 Мотивация дня:\n\n" + quote}
}

// MeetingPreparation is the Tuesday reminder.
func MeetingPreparation() messenger.Message {
	return messenger.Message{Text: `📅 Напоминание о встрече!

В четверг в 18:50 начинается встреча по проекту!

📌 Обновите статус задач, соберите метрики и отметьте риски.
🎯 Не забудьте подготовить отчеты и вопросы!

Удачи! 🚀`}
}

// MeetingStart is the Thursday reminder.
func MeetingStart() messenger.Message {
	return messenger.Message{Text: `🚀 Встреча начинается!

Сейчас (18:50) начинается встреча по проекту!

📋 Готовьтесь к обсуждению:
• Текущие задачи
• Проблемы и решения
• Планы на следующую неделю

Удачной встречи! 💪`}
}

// SchedulerCheck is the one-shot self-test broadcast.
func SchedulerCheck() messenger.Message {
	return messenger.Message{Text: "🧪 Тест планировщика!\n\nЕсли вы получили это сообщение, значит периодические задачи работают правильно!"}
}

// RemindersStarted and RemindersFinished frame /test_reminders.
func RemindersStarted() messenger.Message {
	return messenger.Message{Text: "🧪 Запуск теста напоминаний..."}
}

func RemindersFinished(delivered, total int) messenger.Message {
	return messenger.Message{Text: fmt.Sprintf("✅ Тест напоминаний завершен! Доставлено %d из %d сообщений.", delivered, total)}
}

// RemindersFailed is sent when /test_reminders could not finish.
func RemindersFailed() messenger.Message {
	return messenger.Message{Text: "Ошибка при тестировании напоминаний. Проверьте логи."}
}

// Quotes are the motivational quotes for the daily broadcast.
var Quotes = []string{
	"Учись каждый день — маленькие шаги складываются в большие прорывы.",
	"Код — это ремесло. Практика делает мастера.",
	"Падай быстро, вставай быстрее и документируй выводы.",
	"Нет идеального момента начать — есть текущий коммит.",
	"Лучший рефакторинг — тот, который делает код понятнее для команды завтра.",
	"Маленькие победы ведут к большим релизам.",
	"Тесты — это не тормоз, а педаль безопасности.",
	"Автоматизируй скучное — освобождай время для важного.",
	"Ошибки — следы обучения. Не бойся их, анализируй.",
	"Стабильно лучше, чем идеально.",
	"Читай код как книгу — и пиши, чтобы его хотелось читать.",
	"Если сложно объяснить — значит, надо упростить дизайн.",
	"Скорость команды важнее скорости одиночки.",
	"Каждый день — новый шанс стать сильнее на 1%.",
	"Сомневаешься — измерь. Данные снимают споры.",
	"Системное мышление сильнее хаотичной импровизации.",
	"Документация — часть продукта, а не постскриптум.",
	"Архитектура — это выбор компромиссов, сделанных осознанно.",
	"Ревью кода — способ учиться, а не критиковать.",
	"Главная метрика обучения — применённые знания.",
}

// QuotePicker chooses quotes at random. The zero value uses the global source.
type QuotePicker struct {
	Rand *rand.Rand
}

// Pick returns one quote from Quotes.
func (p QuotePicker) Pick() string {
	if p.Rand != nil {
		return Quotes[p.Rand.IntN(len(Quotes))]
	}
	return Quotes[rand.IntN(len(Quotes))]
}
