//go:build darwin

package input

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices -framework Foundation -framework AppKit
#import <ApplicationServices/ApplicationServices.h>
#import <Foundation/Foundation.h>
#import <AppKit/AppKit.h>
#include <stdlib.h>

void vsTypeText(const char* text) {
    NSString *str = [NSString stringWithUTF8String:text];
    for (NSUInteger i = 0; i < [str length]; i++) {
        unichar c = [str characterAtIndex:i];
        CGEventRef down = CGEventCreateKeyboardEvent(NULL, 0, true);
        CGEventRef up = CGEventCreateKeyboardEvent(NULL, 0, false);
        CGEventKeyboardSetUnicodeString(down, 1, &c);
        CGEventKeyboardSetUnicodeString(up, 1, &c);
        CGEventPost(kCGHIDEventTap, down);
        CGEventPost(kCGHIDEventTap, up);
        CFRelease(down);
        CFRelease(up);
    }
}

// vsFrontAppName возвращает имя активного приложения; освобождает вызывающий.
char* vsFrontAppName(void) {
    @autoreleasepool {
        NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
        if (app == nil || app.bundleIdentifier == nil) {
            return NULL;
        }
        return strdup([app.bundleIdentifier UTF8String]);
    }
}
*/
import "C"

import (
	"context"
	"log/slog"
	"unsafe"
)

type darwinInserter struct{}

func newInserter() (Inserter, error) {
	return &darwinInserter{}, nil
}

// Insert печатает текст в терминалы и вставляет Cmd+V в остальные приложения.
func (t *darwinInserter) Insert(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, InsertTimeout)
	defer cancel()

	if app := frontApp(); IsTerminal(app) {
		slog.Debug("typing into terminal", "app", app)
		typeText(text)
		return nil
	}
	if err := pasteViaClipboard(ctx, text, true); err != nil {
		slog.Warn("clipboard paste failed, typing instead", "error", err)
		typeText(text)
	}
	return nil
}

func frontApp() string {
	p := C.vsFrontAppName()
	if p == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}

func typeText(text string) {
	cstr := C.CString(text)
	defer C.free(unsafe.Pointer(cstr))
	C.vsTypeText(cstr)
}
