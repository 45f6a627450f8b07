package overlay

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"video-overlay/internal/engine/enginetest"
	"video-overlay/internal/window"
)

func TestNativeHandle(t *testing.T) {
	Convey("NativeHandle", t, func() {
		Convey("extracts every supported platform", func() {
			cases := []struct {
				handle window.Handle
				want   uintptr
			}{
				{window.XlibHandle{Window: 0x3c00005}, 0x3c00005},
				{window.Win32Handle{HWND: 0x1234}, 0x1234},
				{window.AppKitHandle{NSView: 0xdead0}, 0xdead0},
				{window.UIKitHandle{UIView: 0xbeef0}, 0xbeef0},
			}
			for _, c := range cases {
				got, err := NativeHandle(c.handle)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, c.want)
			}
		})

		Convey("rejects unsupported and missing handles", func() {
			_, err := NativeHandle(window.UnsupportedHandle{Kind: "wayland"})
			So(errors.Is(err, ErrUnsupportedPlatform), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "wayland")

			_, err = NativeHandle(nil)
			So(errors.Is(err, ErrUnsupportedPlatform), ShouldBeTrue)
		})
	})
}

func TestBinder(t *testing.T) {
	Convey("Given a sink with the overlay capability", t, func() {
		sink := &enginetest.Overlay{}
		b := NewBinder()

		Convey("binding an X11 window embeds and applies the initial rectangle", func() {
			bnd, err := b.Bind(sink, window.XlibHandle{Window: 42})
			So(err, ShouldBeNil)
			So(bnd.Embedded(), ShouldBeTrue)
			So(bnd.Platform(), ShouldEqual, "x11")

			h, ok := sink.WindowHandle()
			So(ok, ShouldBeTrue)
			So(h, ShouldEqual, uintptr(42))
			So(sink.Rects(), ShouldResemble, []enginetest.Rect{{X: 0, Y: 20, Width: 300, Height: 200}})
		})

		Convey("binding an unsupported window degrades without a handle", func() {
			bnd, err := b.Bind(sink, window.UnsupportedHandle{Kind: "detached"})
			So(errors.Is(err, ErrUnsupportedPlatform), ShouldBeTrue)
			So(bnd, ShouldNotBeNil)
			So(bnd.Embedded(), ShouldBeFalse)

			_, ok := sink.WindowHandle()
			So(ok, ShouldBeFalse)
		})

		Convey("Fill covers the window and exposes", func() {
			bnd, _ := b.Bind(sink, window.XlibHandle{Window: 1})
			So(bnd.Fill(640, 480), ShouldBeNil)

			So(bnd.Rect(), ShouldResemble, Rect{Width: 640, Height: 480})
			So(sink.Exposes(), ShouldEqual, 1)
		})

		Convey("a rejected rectangle keeps the previous one", func() {
			bnd, _ := b.Bind(sink, window.XlibHandle{Window: 1})
			So(bnd.Fill(0, 480), ShouldNotBeNil)
			So(bnd.Rect(), ShouldResemble, InitialRect)
			So(sink.Exposes(), ShouldEqual, 0)
		})
	})
}
