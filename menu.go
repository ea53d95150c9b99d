package main

import (
	"fmt"
	"strings"
)

// menuItem represents a single gate choice in the menu.
type menuItem struct {
	name   string
	token  Token
	symbol string
}

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// gateMenu defines the gate picker categories and items.
var gateMenu = []menuCategory{
	{
		name: "Gates",
		items: []menuItem{
			{name: "Pauli-X (NOT)", token: GateX, symbol: "X"},
			{name: "Pauli-Y", token: GateY, symbol: "Y"},
			{name: "Pauli-Z", token: GateZ, symbol: "Z"},
			{name: "Hadamard", token: GateH, symbol: "H"},
			{name: "Phase (S)", token: GateS, symbol: "S"},
			{name: "T Gate", token: GateT, symbol: "T"},
			{name: "Identity", token: GateI, symbol: "I"},
		},
	},
	{
		name: "Nodes",
		items: []menuItem{
			{name: "Control", token: Control, symbol: "●"},
			{name: "Anti-control", token: AntiControl, symbol: "○"},
			{name: "Swap", token: Swap, symbol: "×"},
		},
	},
	{
		name: "Other",
		items: []menuItem{
			{name: "Barrier", token: Barrier, symbol: "┃"},
			{name: "Probability Probe", token: Probe, symbol: "M"},
		},
	},
}

// selectedItem returns the highlighted menu entry.
func (m Model) selectedItem() menuItem {
	return gateMenu[m.menuCat].items[m.menuItem]
}

// renderMenu renders the floating gate-picker popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Add Gate"))
	sb.WriteString("\n")

	for i, cat := range gateMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeGateStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(gateMenu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 32)))
	sb.WriteString("\n")

	cat := gateMenu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(gateStyle.Render(item.symbol))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(dimStyle.Render(item.symbol))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  ←→ Cat  ⏎ Ok  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}
