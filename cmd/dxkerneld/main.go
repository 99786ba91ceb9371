// Command dxkerneld boots the IPC-and-scheduling core against the
// in-process HAL simulation, registers one worker thread and sends it
// a Word message from BOOT, and serves the debug console/gRPC surface until
// interrupted. It exists to exercise dxkernel.New end to end, the way
// the teacher's examples/*/cmd/server/main.go files exercise a single
// wired-up framework instance.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	dxkernel "github.com/dgaur/dx-kernel"
	"github.com/dgaur/dx-kernel/abi"
	"github.com/dgaur/dx-kernel/config"
	"github.com/dgaur/dx-kernel/hal"
	"github.com/dgaur/dx-kernel/message"
	"github.com/dgaur/dx-kernel/thread"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.FromEnv()
	sim := hal.NewSimulation()

	k, err := dxkernel.New(ctx, cfg, sim)
	if err != nil {
		log.Fatalf("dxkerneld: boot failed: %v", err)
	}
	log.Printf("dxkerneld %s: booted", dxkernel.Version)

	runDemo(k)

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	log.Println("dxkerneld: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := k.Shutdown(shutdownCtx); err != nil {
		log.Printf("dxkerneld: shutdown error: %v", err)
	}
}

// runDemo registers a worker thread the way a real thread-creation
// syscall (out of scope here) would, sends it a single Word message
// from BOOT, then runs PickNext/TimerTick a few times so the
// console's /stats endpoint has non-zero counters to show.
func runDemo(k *dxkernel.Kernel) {
	worker := abi.ThreadID(1)
	w := thread.New(worker, 0)
	w.SetMailbox(k.Scheduler.RegisterMailbox(worker))
	k.Registry.Register(w)

	msg := message.NewWord(abi.Boot, worker, abi.MessageType(1), abi.MessageID(1), 0xC0FFEE)
	if err := k.Scheduler.Send(msg, 0, 0, 0); err != nil {
		log.Printf("dxkerneld: demo send failed: %v", err)
		return
	}

	for i := 0; i < 4; i++ {
		k.Scheduler.TimerTick()
		next := k.Scheduler.PickNext()
		log.Printf("dxkerneld: pick_next -> %s", next)
	}

	stats := k.Scheduler.Stats()
	log.Printf("dxkerneld: demo stats: %+v", stats)
}
