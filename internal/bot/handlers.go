package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fleetcare/internal/botapi"
	"fleetcare/internal/driver"
)

const (
	msgTransient    = "Сервис временно недоступен, попробуйте позже."
	msgNeedAuth     = "Сначала авторизуйтесь: отправьте /start."
	msgMenu         = "Выберите действие:"
	msgNoCar        = "К вам не закреплён автомобиль. Обратитесь к менеджеру автопарка."
	msgHelp         = "Я помогаю записаться на техобслуживание.\n\n/start — авторизация по номеру телефона\n/ping — проверить связь с сервером\n/help — эта справка"
	msgAskPhone     = "Здравствуйте! Чтобы продолжить, отправьте свой номер телефона кнопкой ниже или сообщением."
	msgBadPhone     = "Не удалось распознать номер телефона. Отправьте его ещё раз."
	msgUnknownPhone = "Этот номер не найден. Обратитесь к менеджеру автопарка, чтобы вас добавили."
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Contact != nil {
		b.authenticate(ctx, msg, msg.Contact.PhoneNumber)
		return
	}

	switch msg.Command() {
	case "start":
		b.sendWithKeyboard(msg.Chat.ID, msgAskPhone, contactRequestKeyboard())
		return
	case "help":
		b.send(msg.Chat.ID, msgHelp)
		return
	case "ping":
		if err := b.client.Ping(ctx); err != nil {
			log.Printf("ping failed: %v", err)
			b.send(msg.Chat.ID, "API недоступен ❌")
			return
		}
		b.send(msg.Chat.ID, "pong ✅")
		return
	}

	// Authenticated users get the menu back; anyone else is assumed to
	// be typing a phone number.
	if _, ok := b.sessions.Get(msg.From.ID); ok {
		b.sendMenu(msg.Chat.ID, msgMenu)
		return
	}
	b.authenticate(ctx, msg, msg.Text)
}

func (b *Bot) authenticate(ctx context.Context, msg *tgbotapi.Message, raw string) {
	phone := driver.NormalizePhone(raw)
	if phone == "" {
		b.send(msg.Chat.ID, msgBadPhone)
		return
	}

	drv, err := b.client.DriverByPhone(ctx, phone)
	if errors.Is(err, botapi.ErrNotFound) {
		b.send(msg.Chat.ID, msgUnknownPhone)
		return
	}
	if err != nil {
		log.Printf("driver lookup: %v", err)
		b.send(msg.Chat.ID, msgTransient)
		return
	}

	// Chat binding lets the server address this driver later; failing
	// to record it must not block authentication.
	if err := b.client.BindChat(ctx, drv.ID, msg.Chat.ID); err != nil {
		log.Printf("bind chat for driver %s: %v", drv.ID, err)
	}

	b.sessions.Bind(msg.From.ID, phone)

	greeting := fmt.Sprintf("Здравствуйте, %s!", drv.FirstName)
	if drv.Car != nil {
		greeting += fmt.Sprintf("\nВаш автомобиль: %s %s, %s.", drv.Car.Make, drv.Car.Model, drv.Car.PlateNumber)
	}
	remove := tgbotapi.NewMessage(msg.Chat.ID, greeting)
	remove.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(remove); err != nil {
		log.Printf("send greeting: %v", err)
	}
	b.sendMenu(msg.Chat.ID, msgMenu)
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		log.Printf("answer callback: %v", err)
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID

	cb, err := ParseCallback(q.Data)
	if err != nil {
		log.Printf("callback from %d: %v", q.From.ID, err)
		return
	}

	sess, ok := b.sessions.Get(q.From.ID)
	if !ok {
		b.send(chatID, msgNeedAuth)
		return
	}

	switch cb.Action {
	case ActionMenuBook:
		b.showDates(ctx, q.From.ID, chatID, messageID, sess)
	case ActionPickDate:
		// Taps on an outdated keyboard are dropped back to the menu
		// instead of advancing a flow the session already left.
		if sess.State != StateChoosingDate {
			b.staleFlow(q.From.ID, chatID, messageID)
			return
		}
		b.showTimes(ctx, q.From.ID, chatID, messageID, sess, cb.Date)
	case ActionPickTime:
		if sess.State != StateChoosingTime || sess.SelectedDate == "" {
			b.staleFlow(q.From.ID, chatID, messageID)
			return
		}
		b.book(ctx, q.From.ID, chatID, messageID, sess, cb.SlotID)
	case ActionMenuCancel:
		b.showCancelList(ctx, q.From.ID, chatID, messageID, sess)
	case ActionCancelPick:
		b.confirmCancel(ctx, q.From.ID, chatID, messageID, sess, cb.AppointmentID)
	case ActionCancelYes:
		if sess.State != StateConfirmCancel {
			b.staleFlow(q.From.ID, chatID, messageID)
			return
		}
		b.cancel(ctx, q.From.ID, chatID, messageID, sess, cb.AppointmentID)
	case ActionCancelNo:
		b.sessions.ToMenu(q.From.ID)
		b.edit(chatID, messageID, "Хорошо, запись остаётся в силе.\n\n"+msgMenu, mainMenuKeyboard())
	case ActionMenuInfo:
		b.edit(chatID, messageID, "Что показать?", infoKeyboard())
	case ActionInfoLast:
		b.showInfo(ctx, chatID, messageID, sess, false)
	case ActionInfoNext:
		b.showInfo(ctx, chatID, messageID, sess, true)
	}
}

func (b *Bot) staleFlow(userID, chatID int64, messageID int) {
	b.sessions.ToMenu(userID)
	b.edit(chatID, messageID, "Эта кнопка устарела. Начните заново.\n\n"+msgMenu, mainMenuKeyboard())
}

func (b *Bot) showDates(ctx context.Context, userID, chatID int64, messageID int, sess Session) {
	drv, err := b.client.DriverByPhone(ctx, sess.Phone)
	if err != nil {
		log.Printf("driver lookup: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if drv.Car == nil {
		b.edit(chatID, messageID, msgNoCar+"\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	dates, err := b.client.FreeDates(ctx, b.window)
	if err != nil {
		log.Printf("free dates: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if len(dates) == 0 {
		b.edit(chatID, messageID, "Свободных дат на ближайшую неделю нет.\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	b.sessions.Set(userID, Session{Phone: sess.Phone, State: StateChoosingDate})
	b.edit(chatID, messageID, "Выберите дату:", dateKeyboard(dates))
}

func (b *Bot) showTimes(ctx context.Context, userID, chatID int64, messageID int, sess Session, date string) {
	slots, err := b.client.SlotsForDate(ctx, date)
	if err != nil {
		log.Printf("slots for %s: %v", date, err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if len(slots) == 0 {
		b.sessions.ToMenu(userID)
		b.edit(chatID, messageID, "На эту дату свободного времени не осталось.\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	b.sessions.Set(userID, Session{Phone: sess.Phone, State: StateChoosingTime, SelectedDate: date})
	b.edit(chatID, messageID, "Выберите время на "+formatDateRU(date)+":", timeKeyboard(slots))
}

func (b *Bot) book(ctx context.Context, userID, chatID int64, messageID int, sess Session, slotID string) {
	drv, err := b.client.DriverByPhone(ctx, sess.Phone)
	if err != nil {
		log.Printf("driver lookup: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if drv.Car == nil {
		b.sessions.ToMenu(userID)
		b.edit(chatID, messageID, msgNoCar+"\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	ap, err := b.client.CreateAppointment(ctx, slotID, drv.ID, drv.Car.ID)
	b.sessions.ToMenu(userID)
	switch {
	case errors.Is(err, botapi.ErrConflict):
		b.edit(chatID, messageID, "Это время уже успели занять. Попробуйте выбрать другое.\n\n"+msgMenu, mainMenuKeyboard())
		return
	case errors.Is(err, botapi.ErrNotFound):
		b.edit(chatID, messageID, "Этот слот больше недоступен.\n\n"+msgMenu, mainMenuKeyboard())
		return
	case err != nil:
		log.Printf("create appointment: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}

	text := fmt.Sprintf("Готово! Вы записаны на ТО %s в %s.\nАвтомобиль: %s.\n\n%s",
		formatDateRU(ap.Slot.Date), ap.Slot.Time, ap.CarPlate, msgMenu)
	b.edit(chatID, messageID, text, mainMenuKeyboard())
}

func (b *Bot) showCancelList(ctx context.Context, userID, chatID int64, messageID int, sess Session) {
	items, err := b.client.ActiveAppointments(ctx, sess.Phone)
	if err != nil {
		log.Printf("active appointments: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if len(items) == 0 {
		b.edit(chatID, messageID, "У вас нет активных записей на ТО.\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	b.sessions.Set(userID, Session{Phone: sess.Phone, State: StateConfirmCancel})
	b.edit(chatID, messageID, "Какую запись отменить?", cancelListKeyboard(items))
}

// ownsAppointment checks that the appointment still belongs to this
// driver's active list, so a stale or forged callback cannot touch
// someone else's booking.
func (b *Bot) ownsAppointment(ctx context.Context, phone, appointmentID string) (botapi.Appointment, bool, error) {
	items, err := b.client.ActiveAppointments(ctx, phone)
	if err != nil {
		return botapi.Appointment{}, false, err
	}
	for _, ap := range items {
		if ap.ID == appointmentID {
			return ap, true, nil
		}
	}
	return botapi.Appointment{}, false, nil
}

func (b *Bot) confirmCancel(ctx context.Context, userID, chatID int64, messageID int, sess Session, appointmentID string) {
	ap, owns, err := b.ownsAppointment(ctx, sess.Phone, appointmentID)
	if err != nil {
		log.Printf("active appointments: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if !owns {
		b.sessions.ToMenu(userID)
		b.edit(chatID, messageID, "Запись не найдена.\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	b.sessions.Set(userID, Session{Phone: sess.Phone, State: StateConfirmCancel, PendingCancelID: appointmentID})
	text := fmt.Sprintf("Отменить запись на %s в %s?", formatDateRU(ap.Slot.Date), ap.Slot.Time)
	b.edit(chatID, messageID, text, confirmCancelKeyboard(appointmentID))
}

func (b *Bot) cancel(ctx context.Context, userID, chatID int64, messageID int, sess Session, appointmentID string) {
	defer b.sessions.ToMenu(userID)

	if sess.PendingCancelID != appointmentID {
		b.edit(chatID, messageID, "Запись не найдена.\n\n"+msgMenu, mainMenuKeyboard())
		return
	}
	_, owns, err := b.ownsAppointment(ctx, sess.Phone, appointmentID)
	if err != nil {
		log.Printf("active appointments: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if !owns {
		b.edit(chatID, messageID, "Запись не найдена.\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	_, err = b.client.CancelUser(ctx, appointmentID)
	switch {
	case errors.Is(err, botapi.ErrConflict):
		b.edit(chatID, messageID, "Эта запись уже была отменена.\n\n"+msgMenu, mainMenuKeyboard())
	case errors.Is(err, botapi.ErrNotFound):
		b.edit(chatID, messageID, "Запись не найдена.\n\n"+msgMenu, mainMenuKeyboard())
	case err != nil:
		log.Printf("cancel appointment %s: %v", appointmentID, err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
	default:
		b.edit(chatID, messageID, "Запись отменена, слот снова свободен.\n\n"+msgMenu, mainMenuKeyboard())
	}
}

func (b *Bot) showInfo(ctx context.Context, chatID int64, messageID int, sess Session, next bool) {
	drv, err := b.client.DriverByPhone(ctx, sess.Phone)
	if err != nil {
		log.Printf("driver lookup: %v", err)
		b.edit(chatID, messageID, msgTransient, mainMenuKeyboard())
		return
	}
	if drv.Car == nil {
		b.edit(chatID, messageID, msgNoCar+"\n\n"+msgMenu, mainMenuKeyboard())
		return
	}

	car := drv.Car
	var text string
	if next {
		text = fmt.Sprintf("Следующее ТО при пробеге %d км.\nИнтервал обслуживания: %d км.",
			car.NextServiceMileage, car.ServiceIntervalKm)
	} else {
		text = fmt.Sprintf("Пробег на последнем ТО: %d км.\nАвтомобиль: %s %s, %s.",
			car.LastServiceMileage, car.Make, car.Model, car.PlateNumber)
	}
	b.edit(chatID, messageID, text+"\n\n"+msgMenu, mainMenuKeyboard())
}
