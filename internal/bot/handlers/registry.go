package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler with its description and middleware.
// It encapsulates all information needed to register and document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
	// Description is shown in the Telegram command menu. Empty hides the command.
	Description string
}

func command(pattern, description string, handler tgbot.HandlerFunc, mw []tgbot.Middleware) RegisteredHandler {
	return RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     pattern,
		Handler:     handler,
		Middleware:  mw,
		MatchType:   tgbot.MatchTypeCommandStartOnly,
		Description: description,
	}
}

// RegisterAllCommands initializes and returns a map of all available bot commands.
// Every command tracks its chat as a broadcast recipient before running.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	tracked := []tgbot.Middleware{Track(deps)}

	handlers["/start"] = command("start", "запуск бота", NewStartHandler(deps), tracked)
	handlers["/about"] = command("about", "информация о компании", NewAboutHandler(deps), tracked)
	handlers["/contacts"] = command("contacts", "контакты команды", NewContactsHandler(deps), tracked)
	handlers["/help"] = command("help", "справка по командам", NewHelpHandler(deps), tracked)
	handlers["/rate"] = command("rate", "оценить бота", NewRateHandler(deps), tracked)
	handlers["/news"] = command("news", "свежая новость", NewNewsHandler(deps), tracked)
	handlers["/region"] = command("region", "регион новостей (ru, us, eu)", NewRegionHandler(deps), tracked)

	debug := []tgbot.Middleware{Track(deps), DebugOnly(deps)}
	var testDesc, remindersDesc string
	if deps.Config.Telegram.DebugCommands {
		testDesc, remindersDesc = "тест отправки сообщений", "ручной тест напоминаний"
	}
	handlers["/test"] = command("test", testDesc, NewTestHandler(deps), debug)
	handlers["/test_reminders"] = command("test_reminders", remindersDesc, NewTestRemindersHandler(deps), debug)

	return handlers
}
