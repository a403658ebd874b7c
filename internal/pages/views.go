package pages

import (
	"blocknotes/internal/domain"
	"blocknotes/internal/editor"
	"blocknotes/internal/render"
)

type attrs = map[string]string

func field(name, label, typ, value string, errs FieldErrors) render.Node {
	children := []render.Node{
		render.El("label", attrs{"for": name}, render.Txt(label)),
		render.El("input", attrs{"id": name, "name": name, "type": typ, "value": value}),
	}
	if msg, ok := errs[name]; ok {
		children = append(children, render.El("span", attrs{"class": "field-error", "data-field": name}, render.Txt(msg)))
	}
	return render.El("div", attrs{"class": "field"}, children...)
}

func formError(msg string) []render.Node {
	if msg == "" {
		return nil
	}
	return []render.Node{render.El("div", attrs{"class": "form-error"}, render.Txt(msg))}
}

func link(href, text string) render.Node {
	return render.El("a", attrs{"href": href, "data-navigate": href}, render.Txt(text))
}

func page(name string, children ...render.Node) render.Node {
	return render.El("main", attrs{"class": "page page-" + name, "data-page": name}, children...)
}

// ── Auth ────────────────────────────────────────────────────

func LoginView(f LoginForm, errs FieldErrors, formErr string) render.Node {
	form := render.El("form", attrs{"data-form": "login"},
		append(formError(formErr),
			field("username", "Имя пользователя", "text", f.Username, errs),
			field("password", "Пароль", "password", "", errs),
			render.El("button", attrs{"type": "submit"}, render.Txt("Войти")),
		)...,
	)
	return page("login", render.El("h1", nil, render.Txt("Вход")), form, link("/register", "Регистрация"))
}

func RegisterView(f RegisterForm, errs FieldErrors, formErr string) render.Node {
	form := render.El("form", attrs{"data-form": "register"},
		append(formError(formErr),
			field("username", "Имя пользователя", "text", f.Username, errs),
			field("email", "Email", "email", f.Email, errs),
			field("password", "Пароль", "password", "", errs),
			field("confirm", "Повторите пароль", "password", "", errs),
			render.El("button", attrs{"type": "submit"}, render.Txt("Зарегистрироваться")),
		)...,
	)
	return page("register", render.El("h1", nil, render.Txt("Регистрация")), form, link("/login", "Вход"))
}

// ── Notes ───────────────────────────────────────────────────

func header(user *domain.User) render.Node {
	name := ""
	if user != nil {
		name = user.Username
	}
	return render.El("header", attrs{"class": "topbar"},
		link("/notes", "Заметки"),
		link("/support", "Поддержка"),
		render.El("span", attrs{"class": "user"}, render.Txt(name)),
		render.El("button", attrs{"data-action": "logout"}, render.Txt("Выйти")),
	)
}

func NotesView(user *domain.User, notes []domain.Note) render.Node {
	items := make([]render.Node, 0, len(notes))
	for _, n := range notes {
		id := string(n.ID)
		star := "☆"
		if n.Favorite {
			star = "★"
		}
		title := n.Title
		if title == "" {
			title = editor.DefaultTitle
		}
		items = append(items, render.Node{
			Tag:   "li",
			Key:   id,
			Attrs: attrs{"class": "note-item", "data-note-id": id},
			Children: []render.Node{
				render.El("button", attrs{"data-action": "favorite", "data-note-id": id}, render.Txt(star)),
				link("/note/"+id, title),
				render.El("button", attrs{"data-action": "delete-note", "data-note-id": id}, render.Txt("Удалить")),
			},
		})
	}
	var body render.Node
	if len(items) == 0 {
		body = render.El("p", attrs{"class": "empty"}, render.Txt("Заметок пока нет"))
	} else {
		body = render.El("ul", attrs{"class": "notes"}, items...)
	}
	return page("notes",
		header(user),
		render.El("button", attrs{"data-action": "new-note", "data-navigate": "/note/new"}, render.Txt("Новая заметка")),
		body,
	)
}

// EditorView is the page chrome around a note's blocks. The blocks node
// is replaced in place by later editor renders.
func EditorView(user *domain.User, title string, favorite bool, blocks []domain.Block) render.Node {
	star := "☆"
	if favorite {
		star = "★"
	}
	toolbar := render.El("div", attrs{"class": "toolbar"},
		render.El("button", attrs{"data-format": "bold"}, render.Txt("B")),
		render.El("button", attrs{"data-format": "italic"}, render.Txt("I")),
		render.El("button", attrs{"data-format": "underline"}, render.Txt("U")),
		render.El("button", attrs{"data-format": "strikethrough"}, render.Txt("S")),
		render.El("button", attrs{"data-action": "split-code"}, render.Txt("</>")),
	)
	return page("editor",
		header(user),
		render.El("div", attrs{"class": "note-head"},
			render.El("input", attrs{"class": "note-title", "data-input": "title", "value": title, "placeholder": editor.DefaultTitle}),
			render.El("button", attrs{"data-action": "toggle-favorite"}, render.Txt(star)),
			render.El("span", attrs{"class": "save-status", "data-status": ""}),
		),
		toolbar,
		render.Blocks(blocks),
	)
}

// ── Support ─────────────────────────────────────────────────

var ticketStatusLabels = map[domain.TicketStatus]string{
	domain.TicketOpen:     "Открыт",
	domain.TicketAnswered: "Отвечен",
	domain.TicketClosed:   "Закрыт",
}

func SupportView(user *domain.User, tickets []domain.Ticket, f TicketForm, errs FieldErrors, notice string) render.Node {
	rows := make([]render.Node, 0, len(tickets))
	for _, t := range tickets {
		label := ticketStatusLabels[t.Status]
		if label == "" {
			label = string(t.Status)
		}
		rows = append(rows, render.Node{
			Tag:   "li",
			Key:   string(t.ID),
			Attrs: attrs{"class": "ticket ticket-" + string(t.Status)},
			Children: []render.Node{
				render.El("strong", nil, render.Txt(t.Subject)),
				render.El("span", attrs{"class": "ticket-status"}, render.Txt(label)),
				render.El("p", nil, render.Txt(t.Message)),
			},
		})
	}
	children := []render.Node{header(user), render.El("h1", nil, render.Txt("Поддержка"))}
	if notice != "" {
		children = append(children, render.El("div", attrs{"class": "notice"}, render.Txt(notice)))
	}
	children = append(children,
		render.El("form", attrs{"data-form": "ticket"},
			field("subject", "Тема", "text", f.Subject, errs),
			render.El("div", attrs{"class": "field"},
				render.El("label", attrs{"for": "message"}, render.Txt("Сообщение")),
				render.El("textarea", attrs{"id": "message", "name": "message"}, render.Txt(f.Message)),
				fieldError("message", errs),
			),
			render.El("button", attrs{"type": "submit"}, render.Txt("Отправить")),
		),
		render.El("ul", attrs{"class": "tickets"}, rows...),
	)
	return page("support", children...)
}

func fieldError(name string, errs FieldErrors) render.Node {
	if msg, ok := errs[name]; ok {
		return render.El("span", attrs{"class": "field-error", "data-field": name}, render.Txt(msg))
	}
	return render.Node{}
}
