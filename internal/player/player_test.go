package player

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"video-overlay/internal/engine"
	"video-overlay/internal/engine/enginetest"
	"video-overlay/internal/events"
	"video-overlay/internal/window"
	"video-overlay/internal/window/windowtest"
)

const testURL = "file:///tmp/clip.webm"

type fixture struct {
	toolkit *windowtest.Toolkit
	engine  *enginetest.Engine
	hub     *events.Hub
	player  *Player
}

func newFixture() *fixture {
	f := &fixture{
		toolkit: windowtest.New(),
		engine:  enginetest.New(),
		hub:     events.NewHub(),
	}
	f.player = New(testURL, Deps{Toolkit: f.toolkit, Engine: f.engine, Emitter: f.hub})
	return f
}

func (f *fixture) playing() {
	So(f.player.Open(), ShouldBeNil)
	So(f.player.HandleEvent(context.Background(), EventReady, nil).Kind, ShouldEqual, Continue)
	So(f.player.State(), ShouldEqual, StatePlaying)
}

func TestID(t *testing.T) {
	Convey("ID", t, func() {
		So(ID(testURL), ShouldEqual, "player-file_tmp_clip_webm")
		So(ID(testURL), ShouldEqual, New(testURL, Deps{}).ID())
		So(ID("https://example.com/other.webm"), ShouldNotEqual, ID(testURL))

		Convey("digits stay attached to their word", func() {
			So(ID("https://example.com/video.mp4"), ShouldEqual, "player-https_example_com_video_mp4")
			So(ID("file:///tmp/h264.mkv"), ShouldEqual, "player-file_tmp_h264_mkv")
			So(ID("a4"), ShouldEqual, "player-a4")
			So(ID("a4"), ShouldNotEqual, ID("a_4"))
		})

		Convey("a trailing separator is kept", func() {
			So(ID("https://example.com/dir/"), ShouldEqual, "player-https_example_com_dir_")
			So(ID("https://example.com/dir/"), ShouldNotEqual, ID("https://example.com/dir"))
		})

		Convey("case changes split words", func() {
			So(ID("/srv/MyClip.webm"), ShouldEqual, "player-srv_my_clip_webm")
			So(ID("HTMLPlayer"), ShouldEqual, "player-html_player")
		})
	})
}

func TestOpen(t *testing.T) {
	Convey("Given a new player", t, func() {
		f := newFixture()
		So(f.player.State(), ShouldEqual, StateCreated)
		So(f.player.Status().Width, ShouldEqual, InitialSize.Width)

		Convey("Open creates one window at the open size", func() {
			So(f.player.Open(), ShouldBeNil)
			So(f.toolkit.Created(), ShouldEqual, 1)

			w := f.toolkit.Last()
			So(w.Opts.Label, ShouldEqual, f.player.ID())
			So(w.Opts.Title, ShouldEqual, testURL)
			So(w.Opts.Size, ShouldResemble, window.Size{Width: 404, Height: 324})
			So(f.player.State(), ShouldEqual, StateWindowOpen)

			Convey("opening again keeps the window", func() {
				So(f.player.Open(), ShouldBeNil)
				So(f.toolkit.Created(), ShouldEqual, 1)
			})
		})

		Convey("a toolkit failure is a construction error", func() {
			f.toolkit.CreateErr = errors.New("no display")
			err := f.player.Open()

			var cerr *ConstructionError
			So(errors.As(err, &cerr), ShouldBeTrue)
			So(cerr.Stage, ShouldEqual, "window")
			So(f.player.Status().HasWindow, ShouldBeFalse)
		})
	})
}

func TestReady(t *testing.T) {
	Convey("Given an open player", t, func() {
		f := newFixture()
		So(f.player.Open(), ShouldBeNil)
		ctx := context.Background()

		Convey("ready builds, binds, fills and plays", func() {
			out := f.player.HandleEvent(ctx, EventReady, nil)
			So(out.Kind, ShouldEqual, Continue)
			So(f.engine.Built(), ShouldEqual, 1)

			pl := f.engine.Last()
			So(pl.URI, ShouldEqual, testURL)
			So(pl.State(), ShouldEqual, engine.StatePlaying)

			h, ok := pl.Sink().WindowHandle()
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, uintptr(0x2a00007))
			So(pl.Sink().Rects(), ShouldResemble, []enginetest.Rect{
				{X: 0, Y: 20, Width: 300, Height: 200},
				{X: 0, Y: 0, Width: 404, Height: 324},
			})
			So(pl.Sink().Exposes(), ShouldEqual, 1)

			st := f.player.Status()
			So(st.State, ShouldEqual, "playing")
			So(st.HasPipeline, ShouldBeTrue)
			So(st.Embedded, ShouldBeTrue)

			Convey("a second ready does not rebuild", func() {
				f.player.HandleEvent(ctx, EventReady, nil)
				So(f.engine.Built(), ShouldEqual, 1)
			})
		})

		Convey("a build failure leaves the player registered without a pipeline", func() {
			f.engine.BuildErr = errors.New("no decoder")
			out := f.player.HandleEvent(ctx, EventReady, nil)
			So(out.Kind, ShouldEqual, Failed)
			So(out.Alive(), ShouldBeTrue)

			var cerr *ConstructionError
			So(errors.As(out.Err, &cerr), ShouldBeTrue)
			So(cerr.Stage, ShouldEqual, "pipeline")
			So(f.player.Status().HasPipeline, ShouldBeFalse)
			So(f.player.State(), ShouldEqual, StateWindowOpen)
		})

		Convey("a sink without overlay is released and reported", func() {
			f.engine.NoOverlay = true
			out := f.player.HandleEvent(ctx, EventReady, nil)
			So(out.Kind, ShouldEqual, Failed)
			So(errors.Is(out.Err, ErrNoOverlay), ShouldBeTrue)
			So(f.engine.Last().State(), ShouldEqual, engine.StateNull)
			So(f.player.Status().HasPipeline, ShouldBeFalse)
		})

		Convey("a failing start stops the pipeline", func() {
			f.engine.StateErr = errors.New("refused")
			out := f.player.HandleEvent(ctx, EventReady, nil)
			So(out.Kind, ShouldEqual, Failed)
			So(f.player.State(), ShouldEqual, StateStopped)
			So(f.player.Status().HasPipeline, ShouldBeFalse)
		})

		Convey("an unsupported handle degrades but still plays", func() {
			f2 := newFixture()
			f2.toolkit.NextHandle = window.UnsupportedHandle{Kind: "wayland"}
			So(f2.player.Open(), ShouldBeNil)

			out := f2.player.HandleEvent(ctx, EventReady, nil)
			So(out.Kind, ShouldEqual, Continue)
			So(f2.player.State(), ShouldEqual, StatePlaying)

			st := f2.player.Status()
			So(st.HasPipeline, ShouldBeTrue)
			So(st.Embedded, ShouldBeFalse)
			_, bound := f2.engine.Last().Sink().WindowHandle()
			So(bound, ShouldBeFalse)
		})

		Convey("a window without a handle degrades the same way", func() {
			f.toolkit.Last().HandleErr = errors.New("not realized")
			out := f.player.HandleEvent(ctx, EventReady, nil)
			So(out.Kind, ShouldEqual, Continue)
			So(f.player.Status().Embedded, ShouldBeFalse)
		})
	})

	Convey("ready before open fails without building", t, func() {
		f := newFixture()
		out := f.player.HandleEvent(context.Background(), EventReady, nil)
		So(out.Kind, ShouldEqual, Failed)
		So(errors.Is(out.Err, ErrNoWindow), ShouldBeTrue)
		So(f.engine.Built(), ShouldEqual, 0)
	})
}

func TestTransitions(t *testing.T) {
	Convey("Given a playing player", t, func() {
		f := newFixture()
		f.playing()
		ctx := context.Background()
		pl := f.engine.Last()

		Convey("pause and play switch the pipeline state", func() {
			f.player.HandleEvent(ctx, EventPause, nil)
			So(pl.State(), ShouldEqual, engine.StatePaused)
			So(f.player.State(), ShouldEqual, StatePaused)

			f.player.HandleEvent(ctx, EventPlay, nil)
			So(pl.State(), ShouldEqual, engine.StatePlaying)
			So(f.player.State(), ShouldEqual, StatePlaying)
		})

		Convey("stop releases the pipeline and binding", func() {
			f.player.HandleEvent(ctx, EventStop, nil)
			So(pl.State(), ShouldEqual, engine.StateNull)
			st := f.player.Status()
			So(st.State, ShouldEqual, "stopped")
			So(st.HasPipeline, ShouldBeFalse)
			So(st.HasWindow, ShouldBeTrue)

			Convey("play without a pipeline is ignored", func() {
				out := f.player.HandleEvent(ctx, EventPlay, nil)
				So(out.Kind, ShouldEqual, Continue)
				So(f.player.State(), ShouldEqual, StateStopped)
			})

			Convey("ready rebuilds in the same window", func() {
				f.player.HandleEvent(ctx, EventReady, nil)
				So(f.engine.Built(), ShouldEqual, 2)
				So(f.toolkit.Created(), ShouldEqual, 1)
				So(f.player.State(), ShouldEqual, StatePlaying)
			})
		})

		Convey("unknown events are ignored", func() {
			out := f.player.HandleEvent(ctx, "moved", map[string]any{"x": 1.0, "y": 2.0})
			So(out.Kind, ShouldEqual, Continue)
			So(f.player.State(), ShouldEqual, StatePlaying)
		})
	})
}

func TestResized(t *testing.T) {
	Convey("Given a playing player", t, func() {
		f := newFixture()
		f.playing()
		ctx := context.Background()
		sink := f.engine.Last().Sink()
		before := len(sink.Rects())

		Convey("a full resize refills the window", func() {
			f.player.HandleEvent(ctx, EventResized, map[string]any{"width": 640.0, "height": 480})
			rects := sink.Rects()
			So(rects[len(rects)-1], ShouldResemble, enginetest.Rect{Width: 640, Height: 480})
			So(sink.Exposes(), ShouldEqual, 2)

			st := f.player.Status()
			So(st.Width, ShouldEqual, 640)
			So(st.Height, ShouldEqual, 480)
		})

		Convey("a partial resize is a no-op", func() {
			f.player.HandleEvent(ctx, EventResized, map[string]any{"width": 640.0})
			So(len(sink.Rects()), ShouldEqual, before)
			So(f.player.Status().Width, ShouldEqual, 404)
		})

		Convey("a payload that is not an object is ignored", func() {
			f.player.HandleEvent(ctx, EventResized, "640x480")
			So(len(sink.Rects()), ShouldEqual, before)
		})
	})

	Convey("A resize before ready is remembered for the first fill", t, func() {
		f := newFixture()
		So(f.player.Open(), ShouldBeNil)
		ctx := context.Background()
		f.player.HandleEvent(ctx, EventResized, map[string]any{"width": 1280.0, "height": 720.0})
		f.player.HandleEvent(ctx, EventReady, nil)

		rects := f.engine.Last().Sink().Rects()
		So(rects[len(rects)-1], ShouldResemble, enginetest.Rect{Width: 1280, Height: 720})
	})
}

func TestPoll(t *testing.T) {
	Convey("Given a playing player with a UI listener", t, func() {
		f := newFixture()
		f.playing()
		ctx := context.Background()
		pl := f.engine.Last()
		sub := f.hub.Subscribe(f.player.ID(), 4)
		defer sub.Cancel()

		Convey("an error message stops playback and notifies the UI", func() {
			pl.Post(engine.Message{Type: engine.MessageStateChanged, Source: "pipeline"})
			pl.Post(engine.Message{Type: engine.MessageError, Source: "decoder", Err: errors.New("corrupt stream")})
			pl.Post(engine.Message{Type: engine.MessageEOS})

			out := f.player.HandleEvent(ctx, EventPoll, nil)
			So(out.Kind, ShouldEqual, Continue)
			So(pl.State(), ShouldEqual, engine.StateNull)
			So(f.player.Status().HasPipeline, ShouldBeFalse)
			So(pl.Pending(), ShouldEqual, 1)

			msg := <-sub.C
			So(msg.Event, ShouldEqual, events.Closed)
			So(msg.Data, ShouldBeNil)

			Convey("a second poll has nothing to drain", func() {
				f.player.HandleEvent(ctx, EventPoll, nil)
				So(len(sub.C), ShouldEqual, 0)
			})
		})

		Convey("end of stream does the same", func() {
			pl.Post(engine.Message{Type: engine.MessageEOS, Source: "pipeline"})
			f.player.HandleEvent(ctx, EventPoll, nil)
			So(f.player.State(), ShouldEqual, StateStopped)
			So((<-sub.C).Event, ShouldEqual, events.Closed)
		})

		Convey("warnings and other messages are drained without stopping", func() {
			pl.Post(engine.Message{Type: engine.MessageWarning, Source: "sink", Err: errors.New("late frame")})
			pl.Post(engine.Message{Type: engine.MessageOther})
			f.player.HandleEvent(ctx, EventPoll, nil)
			So(pl.Pending(), ShouldEqual, 0)
			So(f.player.State(), ShouldEqual, StatePlaying)
			So(len(sub.C), ShouldEqual, 0)
		})
	})
}

func TestClosed(t *testing.T) {
	Convey("Given a playing player", t, func() {
		f := newFixture()
		f.playing()
		ctx := context.Background()
		pl := f.engine.Last()

		Convey("closed tears everything down and asks for removal", func() {
			out := f.player.HandleEvent(ctx, EventClosed, nil)
			So(out.Kind, ShouldEqual, Remove)
			So(out.Alive(), ShouldBeFalse)
			So(pl.State(), ShouldEqual, engine.StateNull)
			So(f.toolkit.Last().Closes(), ShouldEqual, 1)

			st := f.player.Status()
			So(st.State, ShouldEqual, "closed")
			So(st.HasWindow, ShouldBeFalse)
			So(st.HasPipeline, ShouldBeFalse)

			Convey("every later event asks for removal too", func() {
				So(f.player.HandleEvent(ctx, EventPlay, nil).Kind, ShouldEqual, Remove)
				So(f.player.HandleEvent(ctx, EventReady, nil).Kind, ShouldEqual, Remove)
				So(f.engine.Built(), ShouldEqual, 1)
			})

			Convey("it cannot be reopened", func() {
				So(errors.Is(f.player.Open(), ErrClosed), ShouldBeTrue)
				So(f.toolkit.Created(), ShouldEqual, 1)
			})
		})

		Convey("Close is idempotent on the window", func() {
			f.player.Close(ctx)
			f.player.Close(ctx)
			So(f.toolkit.Last().Closes(), ShouldEqual, 1)
			So(f.player.State(), ShouldEqual, StateClosed)
		})
	})
}
