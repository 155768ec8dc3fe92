// Package main fleetctl 命令行客户端
//
// 会话保存在本地文件缓存（~/.fleetctl/session.json），登录一次后
// 其他命令直接复用缓存的身份和令牌，直到显式 logout。
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"fleet-admin/internal/session"
	"fleet-admin/internal/shared/model"
)

func usage() {
	fmt.Fprintf(os.Stderr, `fleetctl - fleet admin command line client

Usage:
  fleetctl [flags] <command>

Commands:
  login      log in and cache the session locally
  logout     discard the cached session
  whoami     show the cached identity
  users      list staff accounts (admin only)
  brands     list brands
  vehicles   list vehicles

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	server := flag.String("server", envOr("FLEET_SERVER", "http://localhost:8080"), "API server base URL")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cache, err := session.NewFileCache("")
	if err != nil {
		fatalf("init session cache: %v", err)
	}
	holder := session.NewHolder(cache)
	if err := holder.Restore(); err != nil {
		fatalf("restore session: %v", err)
	}

	cli := &client{
		baseURL: strings.TrimRight(*server, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		holder:  holder,
	}

	switch flag.Arg(0) {
	case "login":
		err = cli.login()
	case "logout":
		err = cli.logout()
	case "whoami":
		err = cli.whoami()
	case "users":
		err = cli.listUsers()
	case "brands":
		err = cli.listBrands()
	case "vehicles":
		err = cli.listVehicles()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("%v", err)
	}
}

// ============================================================================
// 客户端
// ============================================================================

type client struct {
	baseURL string
	http    *http.Client
	holder  *session.Holder
}

type loginResponse struct {
	Principal *model.Principal `json:"principal"`
	Token     string           `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// login 交互式登录，成功后把身份和令牌写入本地会话缓存
func (c *client) login() error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	body, _ := json.Marshal(map[string]string{"email": email, "password": string(pw)})
	resp, err := c.http.Post(c.baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: %s", apiError(resp))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if err := c.holder.Login(lr.Principal, lr.Token); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}

	fmt.Printf("Logged in as %s <%s> (%s)\n", lr.Principal.FullName, lr.Principal.Email, lr.Principal.Profile)
	return nil
}

// logout 丢弃本地会话
func (c *client) logout() error {
	if err := c.holder.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

// whoami 显示缓存的身份，不访问服务器
func (c *client) whoami() error {
	p := c.holder.Current()
	if p == nil {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("%s <%s> (%s)\n", p.FullName, p.Email, p.Profile)
	return nil
}

func (c *client) listUsers() error {
	var resp struct {
		Users []*model.User `json:"users"`
		Count int           `json:"count"`
	}
	if err := c.get("/api/v1/users", &resp); err != nil {
		return err
	}
	for _, u := range resp.Users {
		fmt.Printf("%-16s  %-25s  %-11s  %-8s  %s\n", u.ID, u.Email, u.Profile, u.Status, u.FullName)
	}
	fmt.Printf("%d user(s)\n", resp.Count)
	return nil
}

func (c *client) listBrands() error {
	var resp struct {
		Brands []*model.Brand `json:"brands"`
		Count  int            `json:"count"`
	}
	if err := c.get("/api/v1/brands", &resp); err != nil {
		return err
	}
	for _, b := range resp.Brands {
		fmt.Printf("%-16s  %-20s  %s\n", b.ID, b.Name, b.Country)
	}
	fmt.Printf("%d brand(s)\n", resp.Count)
	return nil
}

func (c *client) listVehicles() error {
	var resp struct {
		Vehicles []*model.Vehicle `json:"vehicles"`
		Count    int              `json:"count"`
	}
	if err := c.get("/api/v1/vehicles", &resp); err != nil {
		return err
	}
	for _, v := range resp.Vehicles {
		fmt.Printf("%-16s  %-12s  %-12s  %4d  %s\n", v.ID, v.Plate, v.Status, v.Year, v.Color)
	}
	fmt.Printf("%d vehicle(s)\n", resp.Count)
	return nil
}

// get 带会话令牌的 GET 请求
func (c *client) get(path string, out interface{}) error {
	if !c.holder.Authenticated() {
		return fmt.Errorf("not logged in, run `fleetctl login` first")
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.holder.Token())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// 服务端不认这个令牌了，清掉本地会话
		c.holder.Logout()
		return fmt.Errorf("session rejected by server, run `fleetctl login` again")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, apiError(resp))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError 提取响应里的 error 字段，取不到就带上状态码
func apiError(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Error != "" {
		return er.Error
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "fleetctl: "+format+"\n", args...)
	os.Exit(1)
}
