// This file is part of Llama.
//
// Llama is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Llama is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Llama.  If not, see <https://www.gnu.org/licenses/>.

// Package sdl is the display shell: it blits the currently selected GPU
// framebuffers into an SDL window and feeds keyboard input to the HID
// device. Rendering accuracy is out of scope; this is a window onto
// whatever the emulated software has drawn into VRAM.
package sdl

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/jetsetilly/llama/hardware"
	"github.com/jetsetilly/llama/hardware/io"
)

// screen dimensions. framebuffers are stored rotated: one column of the
// visible image per framebuffer row
const (
	topW = 400
	topH = 240
	botW = 320
	botH = 240

	bytesPerPixel = 3
)

// keyMap translates SDL scancodes to console buttons.
var keyMap = map[sdl.Scancode]io.Button{
	sdl.SCANCODE_Z:         io.ButtonA,
	sdl.SCANCODE_X:         io.ButtonB,
	sdl.SCANCODE_A:         io.ButtonX,
	sdl.SCANCODE_S:         io.ButtonY,
	sdl.SCANCODE_Q:         io.ButtonL,
	sdl.SCANCODE_W:         io.ButtonR,
	sdl.SCANCODE_RETURN:    io.ButtonStart,
	sdl.SCANCODE_RSHIFT:    io.ButtonSelect,
	sdl.SCANCODE_UP:        io.ButtonUp,
	sdl.SCANCODE_DOWN:      io.ButtonDown,
	sdl.SCANCODE_LEFT:      io.ButtonLeft,
	sdl.SCANCODE_RIGHT:     io.ButtonRight,
}

// Shell is the SDL window and its textures.
type Shell struct {
	ctr *hardware.CTR

	window   *sdl.Window
	renderer *sdl.Renderer
	top      *sdl.Texture
	bottom   *sdl.Texture

	topBuf []byte
	botBuf []byte
}

// NewShell is the preferred method of initialisation for the Shell type.
func NewShell(ctr *hardware.CTR) (*Shell, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}

	shell := &Shell{
		ctr:    ctr,
		topBuf: make([]byte, topW*topH*bytesPerPixel),
		botBuf: make([]byte, botW*botH*bytesPerPixel),
	}

	var err error
	shell.window, err = sdl.CreateWindow("llama",
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		topW, topH+botH, sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, err
	}

	shell.renderer, err = sdl.CreateRenderer(shell.window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, err
	}

	shell.top, err = shell.renderer.CreateTexture(sdl.PIXELFORMAT_BGR24,
		sdl.TEXTUREACCESS_STREAMING, topW, topH)
	if err != nil {
		return nil, err
	}
	shell.bottom, err = shell.renderer.CreateTexture(sdl.PIXELFORMAT_BGR24,
		sdl.TEXTUREACCESS_STREAMING, botW, botH)
	if err != nil {
		return nil, err
	}

	return shell, nil
}

// Destroy the SDL resources.
func (shell *Shell) Destroy() {
	shell.top.Destroy()
	shell.bottom.Destroy()
	shell.renderer.Destroy()
	shell.window.Destroy()
	sdl.Quit()
}

// readFramebuffer copies and de-rotates one framebuffer out of the
// physical address space. framebuffer row x is column x of the visible
// image (left-most column first), and the pixels within a row run from the
// bottom of the image to the top.
func (shell *Shell) readFramebuffer(addr uint32, w, h int, dst []byte) {
	src := make([]byte, w*h*bytesPerPixel)
	if err := shell.ctr.Mem9.DebugReadBuf(addr, src); err != nil {
		return
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			s := (x*h + (h - 1 - y)) * bytesPerPixel
			d := (y*w + x) * bytesPerPixel
			copy(dst[d:d+bytesPerPixel], src[s:s+bytesPerPixel])
		}
	}
}

// render one frame.
func (shell *Shell) render() {
	topAddr, botAddr := shell.ctr.Gpu.Framebuffers()

	shell.readFramebuffer(topAddr, topW, topH, shell.topBuf)
	shell.readFramebuffer(botAddr, botW, botH, shell.botBuf)

	shell.top.Update(nil, shell.topBuf, topW*bytesPerPixel)
	shell.bottom.Update(nil, shell.botBuf, botW*bytesPerPixel)

	shell.renderer.Clear()
	shell.renderer.Copy(shell.top,
		nil, &sdl.Rect{X: 0, Y: 0, W: topW, H: topH})
	shell.renderer.Copy(shell.bottom,
		nil, &sdl.Rect{X: (topW - botW) / 2, Y: topH, W: botW, H: botH})
	shell.renderer.Present()
}

// Run the shell until the window is closed.
func (shell *Shell) Run() {
	input := shell.ctr.Hid.Input()

	for {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch ev := ev.(type) {
			case *sdl.QuitEvent:
				return
			case *sdl.KeyboardEvent:
				if b, ok := keyMap[ev.Keysym.Scancode]; ok {
					select {
					case input <- io.ButtonState{Button: b, Pressed: ev.Type == sdl.KEYDOWN}:
					default:
					}
				}
			}
		}

		shell.render()
		sdl.Delay(16)
	}
}
