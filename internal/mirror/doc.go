// Package mirror publishes the emulated display to other machines on the
// local network.
//
// A Server serves the framebuffer over HTTP: an index page at "/", the
// current frame as PNG at "/frame.png" and a websocket at "/ws" that pushes
// a PNG every time the frame changes. When advertising is enabled the
// server registers itself over mDNS as ServiceType so Browse can find it
// from another terminal.
package mirror
