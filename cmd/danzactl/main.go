// Command danzactl is a terminal client for a danzastock server. It keeps a
// live view of the shared inventory through the snapshot stream and edits it
// with short commands. All state changes, whether typed by the user or pushed
// by the server, flow through one event loop.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danzastock/danzastock/internal/client"
	"github.com/danzastock/danzastock/internal/model"
	"github.com/danzastock/danzastock/internal/tracker"
)

const usage = `Comandos:
  view materials|costumes   cambiar de vista
  search <texto>            filtrar por nombre (vacío para limpiar)
  ls                        mostrar la lista
  name <texto>              fijar el nombre del formulario
  qty <n>                   fijar la cantidad (solo materiales)
  status storage|loaned|repair
  lent <nombre>             fijar "prestado a"
  edit <n>                  editar el artículo n de la lista
  cancel                    salir del modo edición
  submit                    guardar
  rm <n>                    eliminar el artículo n
  help                      esta ayuda
  quit                      salir
`

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "danzastock server URL")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	vm := tracker.New(ctx)
	msgs := make(chan tracker.Msg, 16)
	lines := make(chan string)

	c := client.New(*serverURL)
	go connect(ctx, c, msgs)
	go readLines(ctx, lines)

	// exec runs a command off the loop and feeds its result back in.
	exec := func(cmd tracker.Cmd) {
		if cmd == nil {
			return
		}
		go func() {
			select {
			case msgs <- cmd():
			case <-ctx.Done():
			}
		}()
	}

	fmt.Print(usage)
	render(vm)

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			msg, quit := parse(vm, line)
			if quit {
				return
			}
			if msg != nil {
				exec(vm.Update(msg))
			}
			render(vm)
		case msg := <-msgs:
			exec(vm.Update(msg))
			render(vm)
		}
	}
}

// connect authenticates, reports the outcome, then pumps server snapshots
// into the event loop until the context ends.
func connect(ctx context.Context, c *client.Client, msgs chan<- tracker.Msg) {
	if err := c.Authenticate(ctx); err != nil {
		msgs <- tracker.ConnectFailedMsg{Err: err}
		return
	}
	msgs <- tracker.ConnectedMsg{Store: c}

	snapshots, errs, err := c.Subscribe(ctx)
	if err != nil {
		msgs <- tracker.StoreErrorMsg{Err: err}
		return
	}

	for snapshots != nil || errs != nil {
		select {
		case items, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			msgs <- tracker.SnapshotMsg{Items: items}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			msgs <- tracker.StoreErrorMsg{Err: err}
		case <-ctx.Done():
			return
		}
	}
}

func readLines(ctx context.Context, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
}

// parse turns one input line into a view-model message. The second return
// is true when the user asked to quit.
func parse(vm *tracker.ViewModel, line string) (tracker.Msg, bool) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "", "ls":
		return nil, false
	case "quit", "exit":
		return nil, true
	case "help":
		fmt.Print(usage)
		return nil, false
	case "view":
		return tracker.SwitchCategoryMsg{View: arg}, false
	case "search":
		return tracker.SetSearchMsg{Query: arg}, false
	case "name":
		form := vm.Form()
		form.Name = arg
		return tracker.SetFormMsg{Form: form}, false
	case "qty":
		form := vm.Form()
		form.Quantity = arg
		return tracker.SetFormMsg{Form: form}, false
	case "lent":
		form := vm.Form()
		form.LoanedTo = arg
		return tracker.SetFormMsg{Form: form}, false
	case "status":
		switch strings.ToLower(arg) {
		case "storage":
			return tracker.SetStatusMsg{Status: model.StatusStorage}, false
		case "loaned":
			return tracker.SetStatusMsg{Status: model.StatusLoaned}, false
		case "repair":
			return tracker.SetStatusMsg{Status: model.StatusRepair}, false
		}
		fmt.Println("estado desconocido:", arg)
		return nil, false
	case "edit":
		item, ok := itemAt(vm, arg)
		if !ok {
			return nil, false
		}
		return tracker.BeginEditMsg{Item: item}, false
	case "cancel":
		return tracker.CancelEditMsg{}, false
	case "submit":
		return tracker.SubmitMsg{}, false
	case "rm":
		item, ok := itemAt(vm, arg)
		if !ok {
			return nil, false
		}
		return tracker.RemoveMsg{ID: item.ID}, false
	}

	fmt.Println("comando desconocido:", cmd)
	return nil, false
}

// itemAt resolves a 1-based list position against the filtered view.
func itemAt(vm *tracker.ViewModel, arg string) (model.Item, bool) {
	n, err := strconv.Atoi(arg)
	items := vm.FilteredItems()
	if err != nil || n < 1 || n > len(items) {
		fmt.Println("número de artículo no válido:", arg)
		return model.Item{}, false
	}
	return items[n-1], true
}

func render(vm *tracker.ViewModel) {
	fmt.Println()

	title := "Materiales"
	if vm.CurrentView() == model.CategoryCostumes {
		title = "Vestuario"
	}
	connection := ""
	if !vm.Connected() {
		connection = " [sin conexión]"
	}
	fmt.Printf("== %s%s ==\n", title, connection)

	if notice := vm.Notice(); notice != nil {
		prefix := "✓"
		if notice.Kind == tracker.NoticeError {
			prefix = "✗"
		}
		fmt.Printf("%s %s\n", prefix, notice.Text)
	}

	if query := vm.SearchQuery(); query != "" {
		fmt.Printf("búsqueda: %q\n", query)
	}

	items := vm.FilteredItems()
	if len(items) == 0 {
		fmt.Println("(no hay artículos)")
	}
	for i, item := range items {
		line := fmt.Sprintf("%2d. %s", i+1, item.Name)
		if vm.CurrentView() == model.CategoryMaterials && item.Quantity != nil {
			line += fmt.Sprintf(" ×%d", *item.Quantity)
		}
		line += " · " + statusName(item.Status)
		if item.Status == model.StatusLoaned && item.LoanedTo != "" {
			line += " a " + item.LoanedTo
		}
		fmt.Println(line)
	}

	form := vm.Form()
	mode := "agregar"
	if editing := vm.Editing(); editing != nil {
		mode = "editar " + editing.Name
	}
	fmt.Printf("[%s] nombre=%q", mode, form.Name)
	if vm.CurrentView() == model.CategoryMaterials {
		fmt.Printf(" cantidad=%q", form.Quantity)
	}
	fmt.Printf(" estado=%s", statusName(vm.StatusValue()))
	if vm.StatusValue() == model.StatusLoaned {
		fmt.Printf(" prestado a=%q", form.LoanedTo)
	}
	if vm.Saving() {
		fmt.Print(" (guardando…)")
	}
	fmt.Println()
	fmt.Print("> ")
}

func statusName(status string) string {
	switch status {
	case model.StatusStorage:
		return "Almacén"
	case model.StatusLoaned:
		return "Prestado"
	case model.StatusRepair:
		return "Reparación"
	}
	return status
}
