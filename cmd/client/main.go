// catalog client: interactive shell for the catalog server.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dev.c0redev.catalog/internal/catalog"
	"dev.c0redev.catalog/internal/client"
	"dev.c0redev.catalog/internal/config"
	"dev.c0redev.catalog/internal/proto"
	"dev.c0redev.catalog/internal/secure"
	"dev.c0redev.catalog/internal/shopping"
)

const usage = `commands:
  create-user <name> <password>   register and log in
  login <name> <password>         log in
  add <file> <cost> <qty> [tags]  list an item (tags: comma-separated ids)
  update <id> <cost> <qty>        change cost and stock
  delete <id>                     remove an item
  search <file>                   items most similar to a file
  browse <tags>                   items carrying every tag id
  browse-all                      the whole catalog
  tags                            the tag taxonomy
  cart add <id> <qty>             put a seen item in the cart
  cart rm <id>                    take an item out
  cart                            show the cart
  exit                            quit`

// shell holds the session plus what the user has seen, so cart commands can
// refer to items by id.
type shell struct {
	cl   *client.Client
	in   *bufio.Scanner
	cart *shopping.Cart
	seen map[int]proto.Record
}

// HandleBatch prints a batch and remembers the records for the cart.
func (s *shell) HandleBatch(batch []proto.Record) error {
	for _, r := range batch {
		s.seen[r.ID] = r
		fmt.Printf("  [%d] %-24s $%-8.2f stock %-4d (%d bytes)\n",
			r.ID, r.Name, r.Cost, r.Quantity, len(r.Blob))
	}
	return nil
}

// Continue asks whether to fetch the next batch.
func (s *shell) Continue() (bool, error) {
	fmt.Print("display more items? (y/n) ")
	if !s.in.Scan() {
		return false, s.in.Err()
	}
	return strings.TrimSpace(s.in.Text()) == "y", nil
}

func (s *shell) report(ok bool, err error) error {
	if err != nil {
		return err
	}
	if ok {
		fmt.Println("ok")
	} else {
		fmt.Println("rejected")
	}
	return nil
}

func (s *shell) stream(n int, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("no results")
	} else {
		fmt.Printf("%d item(s)\n", n)
	}
	return nil
}

func parseTags(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	tags := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad tag id %q", p)
		}
		tags = append(tags, id)
	}
	return tags, nil
}

func (s *shell) add(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: add <file> <cost> <qty> [tags]")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	cost, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return err
	}
	var tags []int
	if len(args) > 3 {
		if tags, err = parseTags(args[3]); err != nil {
			return err
		}
	}
	id, ok, err := s.cl.AddItem(data, filepath.Base(args[0]), float32(cost), qty, tags)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("rejected")
		return nil
	}
	fmt.Println("listed as item", id)
	return nil
}

func (s *shell) cartCmd(args []string) error {
	switch {
	case len(args) == 0:
		for _, p := range s.cart.Products() {
			fmt.Printf("  [%d] %-24s x%-3d $%.2f\n", p.ID, p.Name, p.Quantity, p.Total())
		}
		fmt.Printf("total $%.2f\n", s.cart.Total())
		return nil
	case args[0] == "add" && len(args) == 3:
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		r, ok := s.seen[id]
		if !ok {
			return fmt.Errorf("item %d not seen yet; browse or search first", id)
		}
		return s.cart.Add(shopping.Product{ID: r.ID, Name: r.Name, Cost: r.Cost, Stock: r.Quantity}, qty)
	case args[0] == "rm" && len(args) == 2:
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return s.cart.Remove(id)
	default:
		return fmt.Errorf("usage: cart | cart add <id> <qty> | cart rm <id>")
	}
}

func (s *shell) dispatch(cmd string, args []string) (done bool, err error) {
	switch cmd {
	case "create-user":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: create-user <name> <password>")
		}
		ok, err := s.cl.CreateUser(args[0], args[1])
		return false, s.report(ok, err)
	case "login":
		if len(args) != 2 {
			return false, fmt.Errorf("usage: login <name> <password>")
		}
		ok, err := s.cl.Login(args[0], args[1])
		return false, s.report(ok, err)
	case "add":
		return false, s.add(args)
	case "update":
		if len(args) != 3 {
			return false, fmt.Errorf("usage: update <id> <cost> <qty>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		cost, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return false, err
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return false, err
		}
		ok, err := s.cl.UpdateItem(id, float32(cost), qty)
		return false, s.report(ok, err)
	case "delete":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: delete <id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		ok, err := s.cl.DeleteItem(id)
		return false, s.report(ok, err)
	case "search":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: search <file>")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return false, err
		}
		n, err := s.cl.SearchByItem(data, filepath.Base(args[0]), s)
		return false, s.stream(n, err)
	case "browse":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: browse <tags>")
		}
		tags, err := parseTags(args[0])
		if err != nil {
			return false, err
		}
		n, err := s.cl.BrowseByTags(tags, s)
		return false, s.stream(n, err)
	case "browse-all":
		n, err := s.cl.BrowseAll(s)
		return false, s.stream(n, err)
	case "tags":
		for _, t := range catalog.Tags {
			fmt.Printf("  %2d %s\n", t.ID, t.Name)
		}
		return false, nil
	case "cart":
		return false, s.cartCmd(args)
	case "help":
		fmt.Println(usage)
		return false, nil
	case "exit":
		return true, s.cl.Exit()
	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func main() {
	configPath := flag.String("config", "", "client config file (toml)")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	key, err := secure.LoadOrCreateKey(cfg.KeyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load key:", err)
		os.Exit(1)
	}
	engine, err := secure.NewEngine(key)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init cipher:", err)
		os.Exit(1)
	}
	conn, err := net.Dial("tcp", cfg.ServerAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}

	s := &shell{
		cl:   client.New(conn, engine, proto.DefaultBatchSize),
		in:   bufio.NewScanner(os.Stdin),
		cart: shopping.NewCart(),
		seen: make(map[int]proto.Record),
	}
	fmt.Println("connected to", cfg.ServerAddr, "(try help)")
	for {
		fmt.Print("> ")
		if !s.in.Scan() {
			s.cl.Exit()
			return
		}
		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}
		done, err := s.dispatch(fields[0], fields[1:])
		if err != nil {
			fmt.Println("error:", err)
			if done {
				os.Exit(1)
			}
		}
		if done {
			return
		}
	}
}
