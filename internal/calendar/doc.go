// Package calendar holds the event model shared by the assistant and the
// calendar backends.
//
// Two Service implementations are provided: Client talks to the Google
// Calendar v3 API, and MemoryService keeps events in process for offline use
// and tests. FindByTitle implements the title matching used to locate events
// for update and delete, and WriteICS exports events as iCalendar.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, calendar.ClientOptions{
//	    TokenSource: ts,
//	    HTTPTimeout: 30 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	events, err := client.List(ctx, "primary", calendar.ListQuery{
//	    TimeMin:      day.Start,
//	    TimeMax:      day.End,
//	    SingleEvents: true,
//	    OrderByStart: true,
//	})
package calendar
