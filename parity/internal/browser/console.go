package browser

import (
	"strings"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/paritycheck/parity/feature"
)

func consoleEntry(e *proto.RuntimeConsoleAPICalled) feature.ConsoleEntry {
	parts := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		parts = append(parts, remoteText(a))
	}
	level := string(e.Type)
	if e.Type == proto.RuntimeConsoleAPICalledTypeAssert {
		level = "error"
	}
	return feature.ConsoleEntry{Level: level, Message: strings.Join(parts, " ")}
}

func exceptionEntry(e *proto.RuntimeExceptionThrown) feature.ConsoleEntry {
	d := e.ExceptionDetails
	msg := d.Text
	if d.Exception != nil && d.Exception.Description != "" {
		msg = d.Exception.Description
		if i := strings.IndexByte(msg, '\n'); i > 0 {
			msg = msg[:i]
		}
	}
	return feature.ConsoleEntry{Level: "exception", Message: msg}
}

func logEntry(e *proto.LogEntryAdded) feature.ConsoleEntry {
	msg := e.Entry.Text
	if e.Entry.URL != "" && !strings.Contains(msg, e.Entry.URL) {
		msg += " (" + e.Entry.URL + ")"
	}
	return feature.ConsoleEntry{Level: string(e.Entry.Level), Message: msg}
}

// dialogEntry keeps the text of a JavaScript dialog. It is not SEVERE.
func dialogEntry(e *proto.PageJavascriptDialogOpening) feature.ConsoleEntry {
	return feature.ConsoleEntry{Level: "dialog", Message: string(e.Type) + ": " + e.Message}
}

func remoteText(o *proto.RuntimeRemoteObject) string {
	if o == nil {
		return ""
	}
	if o.Type == proto.RuntimeRemoteObjectTypeString {
		return o.Value.Str()
	}
	if o.Description != "" {
		return o.Description
	}
	if o.UnserializableValue != "" {
		return string(o.UnserializableValue)
	}
	return o.Value.JSON("", "")
}
