package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// handleAdminCommand manages the access list:
//
//	/admin users add <id>
//	/admin users remove <id>
//	/admin users list
//
// Anyone but the admin gets no reply.
func (b *Bot) handleAdminCommand(session *UserSession, args string) {
	if session.userId != b.adminID {
		return
	}

	fields := strings.Fields(args)
	if len(fields) < 2 || fields[0] != "users" {
		session.reply(MsgAdminUsage)
		return
	}

	switch action, rest := fields[1], fields[2:]; action {
	case "add":
		b.changeAccess(session, rest, MsgAdminUserAddUsage, MsgAdminUserAdded, func(id int64) error {
			return b.store.AddAllowedUser(id, session.userId)
		})
	case "remove":
		b.changeAccess(session, rest, MsgAdminUserRemoveUsage, MsgAdminUserRemoved, b.store.RemoveAllowedUser)
	case "list":
		b.listAccess(session)
	default:
		session.reply(MsgAdminUsage)
	}
}

// changeAccess parses the target user id from args and applies change.
func (b *Bot) changeAccess(session *UserSession, args []string, usage, done string, change func(int64) error) {
	if len(args) == 0 {
		session.reply(usage)
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		session.reply(MsgAdminUserInvalidID)
		return
	}
	if err := change(id); err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(done, id)
}

func (b *Bot) listAccess(session *UserSession) {
	users, err := b.store.GetAllowedUsers()
	if err != nil {
		session.replyWithError(err)
		return
	}
	if len(users) == 0 {
		session.reply(MsgAdminNoUsers)
		return
	}

	var sb strings.Builder
	sb.WriteString(MsgAdminAllowedUsers)
	for _, u := range users {
		fmt.Fprintf(&sb, "• `%d` since %s\n", u.TelegramID, u.AddedAt.Format("2006-01-02"))
	}
	session.sendMarkdown(sb.String())
}
