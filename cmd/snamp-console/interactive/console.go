// Package interactive provides the interactive command-line interface
// of snamp-console.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/snamp-platform/snamp-go/pkg/mda"
	"github.com/snamp-platform/snamp-go/pkg/model"
	"github.com/snamp-platform/snamp-go/pkg/notify"
	"github.com/snamp-platform/snamp-go/pkg/registry"
)

// AcceptorFactory creates the passive data acceptor of a new resource.
type AcceptorFactory func(resource string) (*mda.Acceptor, error)

// Console drives a registry and its acceptors from the command line.
type Console struct {
	reg     *registry.Registry
	factory AcceptorFactory
	rl      *readline.Instance
	out     io.Writer
	timeout time.Duration

	mu          sync.Mutex
	acceptors   map[string]*mda.Acceptor
	subscribers map[string]*subscriber
}

// New creates a console with a readline prompt. acceptors are the
// acceptors created at startup, keyed by resource.
func New(reg *registry.Registry, acceptors map[string]*mda.Acceptor, factory AcceptorFactory) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "snamp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c := newConsole(reg, acceptors, factory, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newConsole(reg *registry.Registry, acceptors map[string]*mda.Acceptor, factory AcceptorFactory, out io.Writer) *Console {
	c := &Console{
		reg:         reg,
		factory:     factory,
		out:         out,
		timeout:     5 * time.Second,
		acceptors:   make(map[string]*mda.Acceptor),
		subscribers: make(map[string]*subscriber),
	}
	for name, a := range acceptors {
		c.acceptors[name] = a
	}
	return c
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("resources"),
		readline.PcItem("attrs"),
		readline.PcItem("get"),
		readline.PcItem("set"),
		readline.PcItem("add-attr"),
		readline.PcItem("rm-attr"),
		readline.PcItem("add-notif"),
		readline.PcItem("rm-notif"),
		readline.PcItem("emit"),
		readline.PcItem("subscribe"),
		readline.PcItem("unsubscribe"),
		readline.PcItem("clear"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Console) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Execute(ctx, line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the console
// should exit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "resources", "res":
		c.cmdResources()
	case "attrs", "features":
		c.cmdAttrs(ctx, args)
	case "get", "g":
		c.cmdGet(ctx, args)
	case "set", "s":
		c.cmdSet(ctx, args)
	case "add-attr":
		c.cmdAddAttr(args)
	case "rm-attr":
		c.cmdRemoveAttr(ctx, args)
	case "add-notif":
		c.cmdAddNotif(args)
	case "rm-notif":
		c.cmdRemoveNotif(args)
	case "emit", "e":
		c.cmdEmit(args)
	case "subscribe", "sub":
		c.cmdSubscribe(args)
	case "unsubscribe", "unsub":
		c.cmdUnsubscribe(args)
	case "clear":
		c.cmdClear(args)
	case "status":
		c.cmdStatus()
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return false
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
SNAMP Console Commands:
  Registry:
    resources                         - List hosted resources
    attrs <res>                       - List features of a resource
    get <res> <attr>                  - Read an attribute value
    set <res> <attr> <value>          - Write an attribute value
    clear <res>                       - Remove every feature of a resource
    status                            - Show registry status

  Passive resources:
    add-attr <res> <name> <type> [rw] - Declare an attribute
    rm-attr <res> <name>              - Remove an attribute
    add-notif <res> <type> [type...]  - Declare a notification
    rm-notif <res> <type>             - Remove a notification
    emit <res> <type> [message]       - Emit a notification

  Subscriptions:
    subscribe [type...]               - Print notifications (optionally filtered)
    unsubscribe <id>|all              - Stop printing notifications

  General:
    help                              - Show this help
    quit                              - Exit console

  Types: bool, int8..int64, uint8..uint64, float32, float64, string, bytes, time`)
}

func (c *Console) cmdResources() {
	resources := c.reg.HostedResources()
	if len(resources) == 0 {
		fmt.Fprintln(c.out, "No resources")
		return
	}
	for _, r := range resources {
		attrs := c.reg.GetResourceAttributes(r)
		notifs := c.reg.GetResourceNotifications(r)
		kind := "connector"
		if c.acceptor(r) != nil {
			kind = "passive"
		}
		fmt.Fprintf(c.out, "  %-20s %-9s attributes=%d notifications=%d\n", r, kind, len(attrs), len(notifs))
	}
}

func (c *Console) cmdAttrs(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: attrs <res>")
		return
	}
	res := args[0]
	attrs := c.reg.GetResourceAttributes(res)
	notifs := c.reg.GetResourceNotifications(res)
	if len(attrs) == 0 && len(notifs) == 0 {
		fmt.Fprintf(c.out, "Resource %s has no features\n", res)
		return
	}

	if len(attrs) > 0 {
		fmt.Fprintln(c.out, "Attributes:")
	}
	for _, name := range attrs {
		a, ok := c.reg.Attributes().Get(res, name)
		if !ok {
			continue
		}
		m := a.Metadata()
		value := c.formatRead(ctx, res, name)
		unit := ""
		if m.Unit != "" {
			unit = " " + m.Unit
		}
		fmt.Fprintf(c.out, "  %-20s %-8s %-2s %s%s\n", name, m.Type, m.Access, value, unit)
	}

	if len(notifs) > 0 {
		fmt.Fprintln(c.out, "Notifications:")
	}
	for _, name := range notifs {
		n, ok := c.reg.Notifications().Get(res, name)
		if !ok {
			continue
		}
		m := n.Metadata()
		fmt.Fprintf(c.out, "  %-20s %-13s %s\n", name, m.Severity, strings.Join(m.Types, ","))
	}
}

func (c *Console) formatRead(ctx context.Context, res, name string) string {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	v, err := c.reg.GetAttributeValue(ctx, res, name)
	if err != nil {
		return "<" + model.Classify(err).String() + ">"
	}
	return formatValue(v)
}

func (c *Console) cmdGet(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: get <res> <attr>")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v, err := c.reg.GetAttributeValue(ctx, args[0], args[1])
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "%s/%s = %s\n", args[0], args[1], formatValue(v))
}

func (c *Console) cmdSet(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.out, "Usage: set <res> <attr> <value>")
		fmt.Fprintln(c.out, "  Example: set sensor1 temperature 21.5")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	value := strings.Trim(strings.Join(args[2:], " "), "\"'")
	if err := c.reg.SetAttributeValue(ctx, args[0], args[1], value); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "%s/%s set\n", args[0], args[1])
}

func (c *Console) cmdAddAttr(args []string) {
	if len(args) < 3 {
		fmt.Fprintln(c.out, "Usage: add-attr <res> <name> <type> [rw]")
		return
	}
	dt, err := model.ParseDataType(args[2])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	access := model.AccessReadWrite
	if len(args) > 3 {
		if access, err = model.ParseAccess(args[3]); err != nil {
			fmt.Fprintf(c.out, "Error: %v\n", err)
			return
		}
	}

	a, err := c.acceptorFor(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	meta := &model.AttributeMetadata{Name: args[1], Type: dt, Access: access}
	if _, err := a.DeclareAttribute(meta); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "Attribute %s/%s declared (%s, %s)\n", args[0], args[1], dt, access)
}

func (c *Console) cmdRemoveAttr(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: rm-attr <res> <name>")
		return
	}
	a := c.acceptor(args[0])
	if a == nil {
		fmt.Fprintf(c.out, "Resource %s is not a passive resource\n", args[0])
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	removed, err := a.RemoveAttribute(ctx, args[1])
	switch {
	case err != nil:
		c.printError(err)
	case !removed:
		fmt.Fprintf(c.out, "Attribute %s/%s not declared\n", args[0], args[1])
	default:
		fmt.Fprintf(c.out, "Attribute %s/%s removed\n", args[0], args[1])
	}
}

func (c *Console) cmdAddNotif(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: add-notif <res> <type> [type...]")
		return
	}
	a, err := c.acceptorFor(args[0])
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	meta := &model.NotificationMetadata{Types: args[1:], Severity: model.SeverityInformational}
	if _, err := a.DeclareNotification(meta); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "Notification %s/%s declared\n", args[0], args[1])
}

func (c *Console) cmdRemoveNotif(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: rm-notif <res> <type>")
		return
	}
	a := c.acceptor(args[0])
	if a == nil || !a.RemoveNotification(args[1]) {
		fmt.Fprintf(c.out, "Notification %s/%s not declared\n", args[0], args[1])
		return
	}
	fmt.Fprintf(c.out, "Notification %s/%s removed\n", args[0], args[1])
}

func (c *Console) cmdEmit(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: emit <res> <type> [message]")
		return
	}
	a := c.acceptor(args[0])
	if a == nil {
		fmt.Fprintf(c.out, "Resource %s is not a passive resource\n", args[0])
		return
	}
	n, err := a.Emit(args[1], strings.Join(args[2:], " "), nil)
	if err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "Emitted %s #%d (%s)\n", n.Type, n.Sequence, n.ID)
}

func (c *Console) cmdSubscribe(args []string) {
	s := &subscriber{id: uuid.NewString()[:8], out: c.out}
	var filter model.NotificationFilter
	if len(args) > 0 {
		types := append([]string(nil), args...)
		filter = func(n *model.Notification) bool {
			for _, t := range types {
				if n.Type == t {
					return true
				}
			}
			return false
		}
	}

	c.mu.Lock()
	c.subscribers[s.id] = s
	c.mu.Unlock()

	c.reg.Listeners().AddFiltered(notify.ListenerRef(s), filter, nil)
	fmt.Fprintf(c.out, "Subscribed %s\n", s.id)
}

func (c *Console) cmdUnsubscribe(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: unsubscribe <id>|all")
		return
	}

	c.mu.Lock()
	var subs []*subscriber
	if args[0] == "all" {
		for id, s := range c.subscribers {
			subs = append(subs, s)
			delete(c.subscribers, id)
		}
	} else if s, ok := c.subscribers[args[0]]; ok {
		subs = append(subs, s)
		delete(c.subscribers, args[0])
	}
	c.mu.Unlock()

	if len(subs) == 0 {
		fmt.Fprintf(c.out, "No subscription %s\n", args[0])
		return
	}
	for _, s := range subs {
		c.reg.Listeners().Remove(notify.ListenerRef(s))
	}
	fmt.Fprintf(c.out, "Unsubscribed %d\n", len(subs))
}

func (c *Console) cmdClear(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: clear <res>")
		return
	}
	res := args[0]

	c.mu.Lock()
	a := c.acceptors[res]
	delete(c.acceptors, res)
	c.mu.Unlock()

	var n int
	if a != nil {
		n = len(c.reg.GetResourceAttributes(res)) + len(c.reg.GetResourceNotifications(res))
		if err := a.Close(); err != nil {
			c.printError(err)
			return
		}
	} else {
		n = len(c.reg.RemoveAllFeatures(res))
	}
	fmt.Fprintf(c.out, "Cleared %s: %d accessors closed\n", res, n)
}

func (c *Console) cmdStatus() {
	attrs, attrRes := c.reg.Attributes().Counts()
	notifs, notifRes := c.reg.Notifications().Counts()

	c.mu.Lock()
	acceptors := len(c.acceptors)
	subs := len(c.subscribers)
	c.mu.Unlock()

	fmt.Fprintf(c.out, "Registry:      %s\n", c.reg.Name())
	fmt.Fprintf(c.out, "Session:       %s\n", c.reg.SessionID())
	fmt.Fprintf(c.out, "Resources:     %d\n", len(c.reg.HostedResources()))
	fmt.Fprintf(c.out, "Attributes:    %d (%d resources)\n", attrs, attrRes)
	fmt.Fprintf(c.out, "Notifications: %d (%d resources)\n", notifs, notifRes)
	fmt.Fprintf(c.out, "Passive:       %d\n", acceptors)
	fmt.Fprintf(c.out, "Subscribers:   %d\n", subs)
}

// Close closes every acceptor and drops subscriptions.
func (c *Console) Close() error {
	c.mu.Lock()
	acceptors := make([]*mda.Acceptor, 0, len(c.acceptors))
	for _, a := range c.acceptors {
		acceptors = append(acceptors, a)
	}
	clear(c.acceptors)
	clear(c.subscribers)
	c.mu.Unlock()

	var errs []error
	for _, a := range acceptors {
		errs = append(errs, a.Close())
	}
	c.reg.Listeners().Clear()
	return errors.Join(errs...)
}

// Resources returns the names of the passive resources, sorted.
func (c *Console) Resources() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.acceptors))
	for name := range c.acceptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Console) acceptor(res string) *mda.Acceptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acceptors[res]
}

func (c *Console) acceptorFor(res string) (*mda.Acceptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.acceptors[res]; ok {
		return a, nil
	}
	if c.factory == nil {
		return nil, fmt.Errorf("resource %s is not a passive resource", res)
	}
	a, err := c.factory(res)
	if err != nil {
		return nil, err
	}
	c.acceptors[res] = a
	return a, nil
}

func (c *Console) printError(err error) {
	fmt.Fprintf(c.out, "Error [%s]: %v\n", model.Classify(err), err)
}

// subscriber prints notifications delivered through the registry.
type subscriber struct {
	id  string
	out io.Writer
}

func (s *subscriber) HandleNotification(n *model.Notification, _ any) {
	msg := n.Message
	if msg == "" {
		msg = "-"
	}
	fmt.Fprintf(s.out, "[NOTIFY %s] %s %s #%d %s\n", s.id, n.Source, n.Type, n.Sequence, msg)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case []byte:
		return fmt.Sprintf("0x%x", x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case float32, float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
