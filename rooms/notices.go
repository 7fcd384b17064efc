// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rooms

import (
	"fmt"
	"time"
)

// Text of the messages the manager sends. Durations are rendered in
// whole seconds, which is how the configuration states them.

func seconds(d time.Duration) int64 { return int64(d / time.Second) }

func bannerLines(idle time.Duration) []string {
	return []string{
		"Meeting Channel",
		"_A copy of this chat will be sent to each member once the meeting ends_",
		fmt.Sprintf("_The meeting will end after %d seconds of inactivity in the voice channel_", seconds(idle)),
	}
}

func createdNotice(name string, idle time.Duration) string {
	return fmt.Sprintf("Created a meeting for you with name %s\n"+
		"This meeting room will self-destruct in the event of %d seconds of inactivity",
		name, seconds(idle))
}

func addedNotice(name, ownerName string) string {
	return fmt.Sprintf("You've been added to %s room by the user %s", name, ownerName)
}

func idleChannelNotice(idle time.Duration) string {
	return fmt.Sprintf("There is no one in the voice chat, this means the meeting will end in %d seconds", seconds(idle))
}

func idleOwnerNotice(name string, idle time.Duration) string {
	return fmt.Sprintf("Your meeting room %s will delete in %d seconds unless the voice chat becomes active in this time period",
		name, seconds(idle))
}

func expiredNotice(name string, idle time.Duration) string {
	return fmt.Sprintf("MEETING ENDING:\nYour meeting room %s has expired due to %d seconds of inactivity in the voice chat",
		name, seconds(idle))
}

func closedNotice(name string) string {
	return fmt.Sprintf("MEETING ENDING:\nYour meeting room %s has been closed", name)
}

func failedNotice() string {
	return "Your meeting room could not be created. Please try again later"
}
