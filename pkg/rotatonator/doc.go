// Package rotatonator tracks an EverQuest complete-heal chain from the
// game's chat log.
//
// Healers in a chain announce their casts with a macro such as
//
//	/gsay D&D 333 CH - Tankname - 3
//
// where the repeated code names the caster's slot. This package follows
// the log, recognizes those announcements and roster imports, and keeps
// the rotation: it warns the local player when they are next, fires when
// their turn arrives, tracks when every upcoming healer is expected to
// cast, and optionally scores each healer's timing.
//
// # Basic Usage
//
//	roster := rotatonator.DefaultRoster()
//	roster.Healers = []string{"Alice", "Bob", "Carol"}
//	roster.Player = "Bob"
//
//	session, err := rotatonator.NewSession(logFile, roster,
//	    rotatonator.WithScoring(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	events, errs, err := session.Watch(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            return
//	        }
//	        switch ev.Type {
//	        case rotatonator.EventTurnStarting:
//	            fmt.Printf("you are next, cast in %.1fs\n", ev.TimeUntilCast)
//	        case rotatonator.EventTurnNow:
//	            fmt.Println("cast now")
//	        }
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// The Engine can also be driven directly, without a log file, by calling
// OnCast and ReplaceRoster and subscribing a Listener.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Daybreak Game Company.
package rotatonator
