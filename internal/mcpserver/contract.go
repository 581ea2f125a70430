package mcpserver

// RecipeFormatContract describes the recipe document accepted by
// create_recipe and by the import directory.
const RecipeFormatContract = `# Larder Recipe Format

A recipe is a single JSON object (or the equivalent YAML document when
dropped into the import directory).

## Fields

| Field          | Type            | Rule                                          |
|----------------|-----------------|-----------------------------------------------|
| title          | string          | REQUIRED, not blank                           |
| description    | string          | optional                                      |
| category       | string          | REQUIRED, one of the categories below         |
| prepTime       | integer minutes | >= 0                                          |
| cookTime       | integer minutes | >= 0                                          |
| servings       | integer         | REQUIRED, >= 1                                |
| ingredients    | list            | objects with name (required), amount, unit    |
| instructions   | list of strings | one entry per step, none blank                |

Categories: Breakfast, Lunch, Dinner, Dessert, Appetizer, Snack, Beverage, Other.

## Rules

1. **Order matters.** Ingredients and instructions are stored and returned in
   the order given. Steps are numbered from 1 automatically; do not prefix
   them with numbers.
2. **amount and unit are free text** (` + "`" + `"1/2"` + "`" + `, ` + "`" + `"a pinch"` + "`" + `, ` + "`" + `""` + "`" + `). Put the quantity in
   amount and the measure in unit.
3. **Do not send id, createdAt or updatedAt.** They are assigned by the store.
   Unknown fields are rejected.
4. **Times are whole minutes.** 90 minutes is ` + "`" + `90` + "`" + `, not ` + "`" + `"1h 30min"` + "`" + `.

## Example

` + "```" + `json
{
  "title": "Mushroom Risotto",
  "description": "Creamy arborio rice with mushrooms and parmesan.",
  "category": "Dinner",
  "prepTime": 15,
  "cookTime": 30,
  "servings": 4,
  "ingredients": [
    {"name": "arborio rice", "amount": "1.5", "unit": "cups"},
    {"name": "mushrooms", "amount": "300", "unit": "g"},
    {"name": "vegetable broth", "amount": "1", "unit": "l"},
    {"name": "parmesan", "amount": "50", "unit": "g"}
  ],
  "instructions": [
    "Heat broth in a saucepan and keep warm on low heat.",
    "Saute the mushrooms until golden, then set aside.",
    "Toast the rice for two minutes, then add broth one ladle at a time.",
    "Stir in mushrooms and parmesan and serve."
  ]
}
` + "```" + `
`
