package chat

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"pm", "/pm bob hello there\n", PrivateMessageCommand{Target: "bob", Body: "hello there"}},
		{"pm without body falls through", "/pm bob\n", ChatCommand{Text: "/pm bob"}},
		{"help", "/help\n", HelpCommand{}},
		{"recent", "/recent\n", RecentCommand{}},
		{"join", "/join games\n", JoinCommand{Room: "games"}},
		{"join without room", "/join\n", JoinCommand{Room: ""}},
		{"join strips control characters", "/join gam\x01es\n", JoinCommand{Room: "gam"}},
		{"join truncates to max room name length", "/join " + strings.Repeat("x", 40) + "\n", JoinCommand{Room: strings.Repeat("x", 30)}},
		{"room", "/room\n", RoomCommand{}},
		{"rooms", "/rooms\n", RoomListCommand{}},
		{"users", "/users\n", UserListCommand{}},
		{"plain chat", "hello everyone\n", ChatCommand{Text: "hello everyone"}},
		{"unknown slash command falls through", "/nonsense\n", ChatCommand{Text: "/nonsense"}},
		{"slash without trailing boundary falls through", "/helpful\n", ChatCommand{Text: "/helpful"}},
		{"trims bare LF", "hi\n", ChatCommand{Text: "hi"}},
		{"trims CRLF", "hi\r\n", ChatCommand{Text: "hi"}},
		{"empty line", "", ChatCommand{Text: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}
